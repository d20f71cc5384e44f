package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

// Classifier calls an external crop-disease model server. It implements
// ports.ImageClassifier; the server receives the raw image as a multipart
// upload and answers with the detected label and confidence.
type Classifier struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClassifier creates a new vision model-server client
func NewClassifier(baseURL string, log *zap.Logger) *Classifier {
	return &Classifier{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		log:        log,
	}
}

type predictResponse struct {
	Disease       string             `json:"disease"`
	Confidence    float64            `json:"confidence"`
	RawDetections []domain.Detection `json:"raw_detections"`
	Error         string             `json:"error"`
}

func (c *Classifier) Classify(ctx context.Context, image domain.MediaRef) (*domain.Classification, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("vision: model server not configured")
	}

	f, err := os.Open(image.Path)
	if err != nil {
		return nil, fmt.Errorf("vision: open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(image.Path))
	if err != nil {
		return nil, fmt.Errorf("vision: build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("vision: read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("vision: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return nil, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision: model server status %d", resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("vision: decode response: %w", err)
	}

	cls := &domain.Classification{
		Label:      result.Disease,
		Confidence: result.Confidence,
		Detections: result.RawDetections,
		Err:        result.Error,
	}
	if cls.Label == "" {
		cls.Label = domain.NoDetectionLabel
	}

	c.log.Debug("image classified",
		zap.String("label", cls.Label),
		zap.Float64("confidence", cls.Confidence),
	)
	return cls, nil
}
