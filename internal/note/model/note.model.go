package model

import (
	"errors"
	"time"
)

// Sentinel errors for the note domain. Handlers match these with errors.Is
// to pick a status code; everything else is a 500.
var (
	ErrNotFound   = errors.New("note not found")
	ErrValidation = errors.New("validation failed")
)

// Note is a row in the notes table. ImageKey names a blob in the object
// store, or is nil when the note has no image. ImageDisplayURL is derived
// on every read and never persisted, so its expiry is fresh per request.
type Note struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	ImageKey        *string   `json:"image_key"`
	ImageDisplayURL string    `json:"image_display_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type NoteRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageKey *string `json:"image_key"`
}

type UploadSlotResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type MsgResponse struct {
	Msg string `json:"msg"`
}
