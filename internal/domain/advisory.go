package domain

import "strings"

// Language is the closed set of languages the assistant speaks.
type Language string

const (
	LanguageBengali Language = "bn"
	LanguageEnglish Language = "en"
)

// MediaRef is an opaque reference to an uploaded or generated media file.
type MediaRef struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AdvisoryInput is the normalized input bundle handed to the pipeline.
// Any combination of fields may be absent; it is immutable once built.
type AdvisoryInput struct {
	Audio    *MediaRef
	Image    *MediaRef
	Text     string
	UserID   string
	Location *GeoPoint
}

// Empty reports whether the bundle carries nothing the pipeline could act on.
func (in *AdvisoryInput) Empty() bool {
	return in.Audio == nil && in.Image == nil && strings.TrimSpace(in.Text) == ""
}

// HasLocation reports whether both coordinates were supplied.
func (in *AdvisoryInput) HasLocation() bool {
	return in.Location != nil
}

// Message is one entry of a conversation log. Order is meaningful.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcription is what a Transcriber returns.
type Transcription struct {
	Text     string
	Language Language
}

// AdvisoryResult is the immutable output bundle returned to the caller.
// Field names mirror the public API payload.
type AdvisoryResult struct {
	Transcript     string          `json:"transcript"`
	Reply          string          `json:"reply_text"`
	Crop           string          `json:"crop,omitempty"`
	Language       Language        `json:"language"`
	Classification *Classification `json:"vision_result,omitempty"`
	Forecast       *Forecast       `json:"weather_forecast,omitempty"`
	SpeechPath     string          `json:"tts_path,omitempty"`
}
