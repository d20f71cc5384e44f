package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const transcribePrompt = `Transcribe this audio recording accurately.
The speaker is a farmer from Bangladesh and may speak in Bengali (বাংলা) or English.
Return ONLY the transcribed text, nothing else. Keep the original language of the speech.
If the audio is silent or unintelligible, return an empty response.`

// Client talks to the Gemini generateContent API. It implements both
// ports.Transcriber (audio as inline data) and ports.ResponseGenerator
// (text and multimodal prompts).
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new Gemini API client
func NewClient(apiKey, model string, log *zap.Logger) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		log:        log,
	}
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"system_instruction,omitempty"`
	Contents          []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one prompt, optionally with an attached image, and returns
// the model text. API failures are mapped onto the generator error taxonomy.
func (c *Client) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	parts := []generatePart{{Text: req.Prompt}}
	if req.Image != nil {
		part, err := inlinePart(*req.Image)
		if err != nil {
			return "", fmt.Errorf("gemini: read image: %w", err)
		}
		parts = append(parts, part)
	}
	return c.generateContent(ctx, req.Instructions, parts)
}

// Transcribe sends the audio bytes as inline data with a transcription
// prompt. Language identification is left to the caller.
func (c *Client) Transcribe(ctx context.Context, audio domain.MediaRef) (domain.Transcription, error) {
	part, err := inlinePart(audio)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("gemini: read audio: %w", err)
	}

	text, err := c.generateContent(ctx, "", []generatePart{{Text: transcribePrompt}, part})
	if err != nil {
		return domain.Transcription{}, err
	}
	return domain.Transcription{Text: strings.TrimSpace(text)}, nil
}

func (c *Client) generateContent(ctx context.Context, instructions string, parts []generatePart) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: %w: API key not configured", ports.ErrUnauthorized)
	}

	body := generateRequest{
		Contents: []generateContent{{Parts: parts}},
	}
	if instructions != "" {
		body.SystemInstruction = &generateContent{Parts: []generatePart{{Text: instructions}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("gemini: %w: %v", ports.ErrTimeout, err)
		}
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, raw)
	}

	var result generateResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}

	var sb strings.Builder
	for _, cand := range result.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		break
	}
	return sb.String(), nil
}

// statusError maps HTTP status codes onto the generator error taxonomy so the
// fallback ladder can pick the matching advisory text.
func (c *Client) statusError(status int, raw []byte) error {
	var parsed generateResponse
	msg := ""
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}
	c.log.Warn("Gemini API error", zap.Int("status", status), zap.String("message", msg))

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("gemini: %w: status %d", ports.ErrQuotaExceeded, status)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("gemini: %w: status %d", ports.ErrUnauthorized, status)
	case http.StatusBadRequest:
		return fmt.Errorf("gemini: %w: status %d", ports.ErrBadRequest, status)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return fmt.Errorf("gemini: %w: status %d", ports.ErrTimeout, status)
	default:
		return fmt.Errorf("gemini: API error status %d: %s", status, msg)
	}
}

func inlinePart(ref domain.MediaRef) (generatePart, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return generatePart{}, err
	}
	mime := ref.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return generatePart{InlineData: &inlineData{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}
