package models

import (
	"time"

	"github.com/google/uuid"
)

// AudioNote is a persisted recording together with its transcript. Notes are
// never updated; they are only created and deleted.
type AudioNote struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AudioURL      string    `json:"audio_url" db:"audio_url"`
	Transcription string    `json:"transcription" db:"transcription"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
