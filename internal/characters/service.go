// Package characters sequences the character library operations over the
// profile store, blob store and the generative AI clients.
package characters

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/charstudio/internal/apperr"
	"github.com/your-org/charstudio/internal/gemini"
	"github.com/your-org/charstudio/internal/models"
	"github.com/your-org/charstudio/internal/observability"
	"github.com/your-org/charstudio/internal/storage"
)

type ProfileStore interface {
	CreateCharacter(ctx context.Context, c *models.Character) error
	GetCharacter(ctx context.Context, id string) (*models.Character, error)
	ListCharactersByOwner(ctx context.Context, ownerID string) ([]models.Character, error)
}

type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) (*storage.Object, error)
	ObjectURL(ctx context.Context, key string) (string, error)
	KeyFromURL(rawURL string) (string, error)
}

type Analyzer interface {
	AnalyzeCharacter(ctx context.Context, image []byte, mimeType string) (*gemini.CharacterTraits, error)
}

type Illustrator interface {
	GenerateVisualization(ctx context.Context, req gemini.VisualizationRequest) (*gemini.Image, error)
}

// EventPublisher receives library events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.LibraryEvent) error
}

// Deps are the collaborators of a Service. Analyzer and Illustrator are nil
// when the AI backend is not configured.
type Deps struct {
	Profiles    ProfileStore
	Blobs       BlobStore
	Analyzer    Analyzer
	Illustrator Illustrator
	Events      EventPublisher
}

type Service struct {
	profiles    ProfileStore
	blobs       BlobStore
	analyzer    Analyzer
	illustrator Illustrator
	events      EventPublisher

	newID func() string
	now   func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		profiles:    d.Profiles,
		blobs:       d.Blobs,
		analyzer:    d.Analyzer,
		illustrator: d.Illustrator,
		events:      d.Events,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// ImageInput is an uploaded image with its declared MIME type.
type ImageInput struct {
	Data     []byte
	MIMEType string
}

// Pair holds the two profiles created from one upload, in input order.
type Pair struct {
	A *models.Character
	B *models.Character
}

var errAINotConfigured = apperr.FailedPrecondition("AI backend is not configured")

// ListLibrary returns the caller's characters, newest first.
func (s *Service) ListLibrary(ctx context.Context, ownerID string) ([]models.Character, error) {
	list, err := s.profiles.ListCharactersByOwner(ctx, ownerID)
	if err != nil {
		slog.Error("list characters", "owner_id", ownerID, "error", err)
		return nil, apperr.Internal("failed to load library", err)
	}
	if list == nil {
		list = []models.Character{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// GetByID returns a character owned by the caller.
func (s *Service) GetByID(ctx context.Context, ownerID, id string) (*models.Character, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.InvalidArgument("characterId is required")
	}
	return s.loadOwned(ctx, ownerID, id)
}

func (s *Service) loadOwned(ctx context.Context, ownerID, id string) (*models.Character, error) {
	c, err := s.profiles.GetCharacter(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("character not found")
		}
		slog.Error("get character", "character_id", id, "error", err)
		return nil, apperr.Internal("failed to load character", err)
	}
	if c.OwnerID != ownerID {
		slog.Warn("character access denied", "character_id", id, "owner_id", ownerID)
		return nil, apperr.PermissionDenied("character belongs to another user")
	}
	return c, nil
}

// ReferenceImage returns the stored reference image of a character owned by the caller.
func (s *Service) ReferenceImage(ctx context.Context, ownerID, id string) (*storage.Object, error) {
	c, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.fetchReference(ctx, c)
}

func (s *Service) fetchReference(ctx context.Context, c *models.Character) (*storage.Object, error) {
	key, err := s.blobs.KeyFromURL(c.ImageURL)
	if err != nil {
		slog.Error("resolve reference image", "character_id", c.ID, "error", err)
		return nil, apperr.Internal("failed to load reference image", err)
	}
	obj, err := s.blobs.GetObject(ctx, key)
	if err != nil {
		slog.Error("fetch reference image", "character_id", c.ID, "key", key, "error", err)
		return nil, apperr.Internal("failed to load reference image", err)
	}
	return obj, nil
}

// CreatePair analyzes and stores two characters concurrently. A failure on one
// side leaves the other side persisted.
func (s *Service) CreatePair(ctx context.Context, ownerID string, a, b ImageInput) (*Pair, error) {
	if err := validateImages(a, b); err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, errAINotConfigured
	}

	var (
		g       errgroup.Group
		results [2]*models.Character
	)
	for i, img := range []ImageInput{a, b} {
		g.Go(func() error {
			c, err := s.analyzeAndSave(ctx, ownerID, img)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range results {
			if c != nil {
				slog.Warn("character pair partially created", "character_id", c.ID, "owner_id", ownerID)
			}
		}
		slog.Error("create character pair", "owner_id", ownerID, "error", err)
		return nil, apperr.Wrap("failed to create characters", err)
	}

	return &Pair{A: results[0], B: results[1]}, nil
}

func validateImages(a, b ImageInput) error {
	switch {
	case len(a.Data) == 0:
		return apperr.InvalidArgument("imageA is required")
	case strings.TrimSpace(a.MIMEType) == "":
		return apperr.InvalidArgument("imageAMimeType is required")
	case len(b.Data) == 0:
		return apperr.InvalidArgument("imageB is required")
	case strings.TrimSpace(b.MIMEType) == "":
		return apperr.InvalidArgument("imageBMimeType is required")
	}
	return nil
}

func (s *Service) analyzeAndSave(ctx context.Context, ownerID string, img ImageInput) (*models.Character, error) {
	id := s.newID()
	key := storage.CharacterImageKey(ownerID, id)

	if err := s.blobs.PutObject(ctx, key, img.Data, img.MIMEType); err != nil {
		return nil, err
	}
	imageURL, err := s.blobs.ObjectURL(ctx, key)
	if err != nil {
		return nil, err
	}

	traits, err := s.analyzer.AnalyzeCharacter(ctx, img.Data, img.MIMEType)
	if err != nil {
		return nil, err
	}

	c := &models.Character{
		ID:          id,
		OwnerID:     ownerID,
		Name:        traits.Name,
		Description: traits.Description,
		Keywords:    traits.Keywords,
		ImageURL:    imageURL,
	}
	if err := s.profiles.CreateCharacter(ctx, c); err != nil {
		return nil, err
	}
	observability.CharactersCreated.Inc()

	s.publish(ctx, models.LibraryEvent{
		Type:        models.EventCharacterCreated,
		OwnerID:     ownerID,
		CharacterID: c.ID,
		Character:   c,
	})
	return c, nil
}

// GenerateVisualization draws a character owned by the caller into a new scene.
func (s *Service) GenerateVisualization(ctx context.Context, ownerID, id, prompt string) (*gemini.Image, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.InvalidArgument("characterId is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.InvalidArgument("prompt is required")
	}
	if s.illustrator == nil {
		return nil, errAINotConfigured
	}

	c, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	ref, err := s.fetchReference(ctx, c)
	if err != nil {
		return nil, err
	}

	img, err := s.illustrator.GenerateVisualization(ctx, gemini.VisualizationRequest{
		Reference:         ref.Data,
		ReferenceMIMEType: ref.ContentType,
		Name:              c.Name,
		Description:       c.Description,
		Keywords:          c.Keywords,
		Prompt:            prompt,
	})
	if err != nil {
		slog.Error("generate visualization", "character_id", c.ID, "error", err)
		if errors.Is(err, gemini.ErrNoImageData) {
			return nil, apperr.Internal(gemini.ErrNoImageData.Error(), err)
		}
		return nil, apperr.Wrap("failed to generate image", err)
	}

	s.publish(ctx, models.LibraryEvent{
		Type:        models.EventVisualizationGenerated,
		OwnerID:     ownerID,
		CharacterID: c.ID,
	})
	return img, nil
}

func (s *Service) publish(ctx context.Context, evt models.LibraryEvent) {
	if s.events == nil {
		return
	}
	evt.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("publish library event", "type", evt.Type, "character_id", evt.CharacterID, "error", err)
		observability.LibraryEventsPublished.WithLabelValues(evt.Type, "error").Inc()
		return
	}
	observability.LibraryEventsPublished.WithLabelValues(evt.Type, "ok").Inc()
}
