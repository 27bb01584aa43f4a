package dto

import (
	"time"

	"github.com/your-org/charstudio/internal/models"
)

type CharacterResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromCharacter(ch *models.Character) CharacterResponse {
	keywords := ch.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return CharacterResponse{
		ID:          ch.ID,
		OwnerID:     ch.OwnerID,
		Name:        ch.Name,
		Description: ch.Description,
		Keywords:    keywords,
		ImageURL:    ch.ImageURL,
		CreatedAt:   ch.CreatedAt,
	}
}

type LibraryResponse struct {
	Characters []CharacterResponse `json:"characters"`
	Total      int                 `json:"total"`
}

// CreatePairRequest carries two images; []byte fields are base64 in JSON.
// Presence is checked by the service so that every missing field maps to the
// same InvalidArgument error.
type CreatePairRequest struct {
	ImageA         []byte `json:"imageA"`
	ImageAMimeType string `json:"imageAMimeType"`
	ImageB         []byte `json:"imageB"`
	ImageBMimeType string `json:"imageBMimeType"`
}

type PairResponse struct {
	CharacterA CharacterResponse `json:"characterA"`
	CharacterB CharacterResponse `json:"characterB"`
}

type VisualizationRequest struct {
	CharacterID string `json:"characterId" binding:"required"`
	Prompt      string `json:"prompt" binding:"required"`
}

// VisualizationResponse.ImageBytes is base64 in JSON.
type VisualizationResponse struct {
	ImageBytes []byte `json:"imageBytes"`
	MimeType   string `json:"mimeType"`
}

// LibraryEvent is the WebSocket frame pushed to a user's connected clients.
type LibraryEvent struct {
	Type        string             `json:"type"`
	CharacterID string             `json:"characterId"`
	Character   *CharacterResponse `json:"character,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}
