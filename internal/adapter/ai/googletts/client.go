package googletts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

const defaultEndpoint = "https://translate.google.com/translate_tts"

// The unauthenticated endpoint rejects long inputs, so text is split into
// chunks and the mp3 segments are concatenated. MP3 frames are
// self-delimiting, so plain byte concatenation plays correctly.
const maxChunkRunes = 180

// Client synthesizes speech via the Google Translate TTS endpoint. It
// implements ports.Synthesizer; the resulting mp3 lands in the artifact
// store and the returned value is the artifact reference.
type Client struct {
	endpoint   string
	artifacts  ports.ArtifactStore
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new Google Translate TTS client
func NewClient(artifacts ports.ArtifactStore, log *zap.Logger) *Client {
	return &Client{
		endpoint:   defaultEndpoint,
		artifacts:  artifacts,
		httpClient: &http.Client{},
		log:        log,
	}
}

func (c *Client) Synthesize(ctx context.Context, text string, lang domain.Language) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("googletts: nothing to synthesize")
	}

	var tl string
	switch lang {
	case domain.LanguageBengali:
		tl = "bn"
	case domain.LanguageEnglish:
		tl = "en"
	default:
		return "", fmt.Errorf("googletts: unsupported language %q", lang)
	}

	w, ref, err := c.artifacts.Create(".mp3")
	if err != nil {
		return "", fmt.Errorf("googletts: create artifact: %w", err)
	}

	for _, chunk := range splitChunks(text, maxChunkRunes) {
		if err := c.fetchChunk(ctx, chunk, tl, w); err != nil {
			w.Close()
			return "", err
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("googletts: finalize artifact: %w", err)
	}

	c.log.Debug("speech synthesized",
		zap.String("language", tl),
		zap.Int("text_runes", utf8.RuneCountInString(text)),
		zap.String("artifact", ref),
	)
	return ref, nil
}

func (c *Client) fetchChunk(ctx context.Context, chunk, tl string, w io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", tl)
	q.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("googletts: create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("googletts: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("googletts: API error status %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("googletts: stream audio: %w", err)
	}
	return nil
}

// splitChunks breaks text into pieces of at most max runes, preferring
// sentence boundaries, then spaces, then a hard cut.
func splitChunks(text string, max int) []string {
	var chunks []string
	runes := []rune(text)

	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, string(runes))
			break
		}

		window := runes[:max]
		cut := lastBoundary(window, []rune{'।', '.', '!', '?'})
		if cut < 0 {
			cut = lastBoundary(window, []rune{' '})
		}
		if cut < 0 {
			cut = max - 1
		}

		chunk := strings.TrimSpace(string(runes[:cut+1]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut+1:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return chunks
}

func lastBoundary(window []rune, marks []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		for _, m := range marks {
			if window[i] == m {
				return i
			}
		}
	}
	return -1
}
