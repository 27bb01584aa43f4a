package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedObjectURL is returned when a stored image URL cannot be mapped back to an object key.
var ErrMalformedObjectURL = errors.New("malformed object url")

// ObjectKeyFromURL maps a durable URL produced by ObjectURL back to the bucket-relative key.
//
// Accepted shapes:
//
//	virtual-host style: scheme://<bucket>.<host>/<key>
//	path style:         scheme://<host>[/<prefix>...]/<bucket>/<key>
//
// The query string (presign signature) is ignored and percent-escapes are decoded.
// Virtual-host style is checked first so that keys which themselves start with a
// segment equal to the bucket name survive.
func ObjectKeyFromURL(rawURL, bucket string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("%w: empty bucket", ErrMalformedObjectURL)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedObjectURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrMalformedObjectURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrMalformedObjectURL)
	}

	if strings.HasPrefix(u.Hostname(), bucket+".") {
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return "", fmt.Errorf("%w: empty key", ErrMalformedObjectURL)
		}
		return key, nil
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != bucket {
			continue
		}
		key := strings.Join(segments[i+1:], "/")
		if key == "" {
			return "", fmt.Errorf("%w: empty key", ErrMalformedObjectURL)
		}
		return key, nil
	}
	return "", fmt.Errorf("%w: bucket %q not in path", ErrMalformedObjectURL, bucket)
}

// urlPrefix is a host plus path prefix that precedes object keys in URLs
// built by a known store configuration.
type urlPrefix struct {
	host string
	path string
}

func (p urlPrefix) trim(u *url.URL) (string, bool) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(u.Host, p.host) || !strings.HasPrefix(u.Path, p.path) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, p.path)
	return key, key != ""
}

// CharacterImageKey is the object key of a character's reference image.
func CharacterImageKey(ownerID, characterID string) string {
	return "characters/" + ownerID + "/" + characterID + "/reference"
}
