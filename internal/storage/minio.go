package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/your-org/charstudio/internal/config"
	"github.com/your-org/charstudio/internal/observability"
)

// ErrObjectNotFound is returned by GetObject when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob together with its content-type metadata.
type Object struct {
	Data        []byte
	ContentType string
}

type MinIOStore struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
	urlExpiry     time.Duration
	urlPrefixes   []urlPrefix
}

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinIOStore{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		urlExpiry:     cfg.URLExpiry,
	}
	if s.urlPrefixes, err = s.knownURLPrefixes(); err != nil {
		return nil, err
	}
	return s, nil
}

// knownURLPrefixes lists the host and path prefix pairs ObjectURL can emit:
// the public base URL, then the endpoint in path and virtual-host style.
func (s *MinIOStore) knownURLPrefixes() ([]urlPrefix, error) {
	var prefixes []urlPrefix
	if s.publicBaseURL != "" {
		base, err := url.Parse(s.publicBaseURL)
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("invalid minio public base url %q", s.publicBaseURL)
		}
		prefixes = append(prefixes, urlPrefix{host: base.Host, path: base.Path + "/" + s.bucket + "/"})
	}

	endpoint := s.client.EndpointURL()
	prefixes = append(prefixes,
		urlPrefix{host: endpoint.Host, path: "/" + s.bucket + "/"},
		urlPrefix{host: s.bucket + "." + endpoint.Host, path: "/"},
	)
	return prefixes, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// PutObject uploads data under the given key with its content type.
func (s *MinIOStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	observability.BlobBytesWritten.Add(float64(len(data)))
	return nil
}

// GetObject retrieves an object and its stored content type.
func (s *MinIOStore) GetObject(ctx context.Context, key string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, s.translate(err))
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat object %s: %w", key, s.translate(err))
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return &Object{Data: data, ContentType: info.ContentType}, nil
}

// ObjectURL returns a durable URL for key: a public path-style URL when a public
// base URL is configured, otherwise a presigned GET URL.
func (s *MinIOStore) ObjectURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + escapeKey(key), nil
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return u.String(), nil
}

// KeyFromURL maps a URL returned by ObjectURL back to its object key. URLs
// from this store's own endpoints are stripped of exactly the prefix they were
// built with; anything else goes through ObjectKeyFromURL.
func (s *MinIOStore) KeyFromURL(rawURL string) (string, error) {
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		for _, p := range s.urlPrefixes {
			if key, ok := p.trim(u); ok {
				return key, nil
			}
		}
	}
	return ObjectKeyFromURL(rawURL, s.bucket)
}

// Ping checks MinIO connectivity.
func (s *MinIOStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func (s *MinIOStore) translate(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
