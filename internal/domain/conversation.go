package domain

import "time"

// User is a farmer identified by an opaque external id (device, phone, ...).
type User struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"external_id" gorm:"uniqueIndex"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationMetadata is the free-form context persisted with a record.
type ConversationMetadata map[string]interface{}

// Conversation is one completed pipeline run as stored for history lookups.
type Conversation struct {
	ID         string               `json:"id" gorm:"primaryKey"`
	UserID     string               `json:"user_id" gorm:"index"`
	Transcript string               `json:"transcript"`
	Confidence *float64             `json:"confidence"`
	MediaURL   string               `json:"media_url"`
	TTSPath    string               `json:"tts_path"`
	Metadata   ConversationMetadata `json:"metadata" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time            `json:"created_at"`
}
