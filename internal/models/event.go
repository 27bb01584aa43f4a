package models

import "time"

const (
	EventCharacterCreated       = "character.created"
	EventVisualizationGenerated = "visualization.generated"
)

// LibraryEvent is published whenever a user's library changes or is used.
// It travels over NATS and is pushed to the owner's WebSocket clients.
type LibraryEvent struct {
	Type        string     `json:"type"`
	OwnerID     string     `json:"ownerId"`
	CharacterID string     `json:"characterId"`
	Character   *Character `json:"character,omitempty"`
	OccurredAt  time.Time  `json:"occurredAt"`
}
