package ports

import (
	"context"
	"errors"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

// Generator error taxonomy. Each maps to a distinct user-facing advisory
// string when the generation fallback ladder catches it.
var (
	ErrQuotaExceeded = errors.New("generator: quota exceeded")
	ErrUnauthorized  = errors.New("generator: unauthorized")
	ErrTimeout       = errors.New("generator: request timed out")
	ErrBadRequest    = errors.New("generator: malformed request")
)

// Transcriber turns recorded speech into text. Implementations should return
// an error rather than block; the pipeline treats any failure as an empty
// transcript and continues.
type Transcriber interface {
	Transcribe(ctx context.Context, audio domain.MediaRef) (domain.Transcription, error)
}

// ImageClassifier runs the crop-disease model over a photo. A label equal to
// domain.NoDetectionLabel means no actionable finding.
type ImageClassifier interface {
	Classify(ctx context.Context, image domain.MediaRef) (*domain.Classification, error)
}

// WeatherProvider fetches an hourly forecast for a coordinate pair. Calls
// must be bounded by a timeout; a nil forecast with nil error means no data.
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error)
}

// GenerateRequest is one call to the language-generation backend. Image, when
// set, must be passed to the model for multimodal interpretation.
type GenerateRequest struct {
	Prompt       string
	Instructions string
	Image        *domain.MediaRef
}

type ResponseGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Synthesizer renders text to speech and returns an artifact reference.
// It fails on unsupported languages or text that cleans down to nothing.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang domain.Language) (string, error)
}
