package advisory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/observability/telemetry"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

// transcribe turns the audio reference into a transcript. Any failure leaves
// an empty transcript and English; the run continues.
func (s *Service) transcribe(ctx context.Context, st *pipelineState) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()

	tr, err := s.transcriber.Transcribe(ctx, *st.input.Audio)
	if err != nil {
		s.stageFailed("transcribe", err)
		return
	}

	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return
	}

	st.transcript = text
	if tr.Language != "" {
		st.language = tr.Language
	} else {
		st.language = domain.DetectLanguage(text)
	}
}

// adoptText takes the caller-supplied text as the transcript directly.
func (s *Service) adoptText(st *pipelineState) {
	st.transcript = strings.TrimSpace(st.input.Text)
	st.language = domain.DetectLanguage(st.transcript)
}

const intentInstruction = `You are an information extraction assistant for FarmAssist.
Your task is to analyze farmer queries and extract structured information.

Extract and return ONLY valid JSON with these exact keys:
- crop: string or null (the specific crop mentioned, e.g., "rice", "tomato", "potato", "wheat")
- symptoms: string (any symptoms, issues, or problems described by the farmer)
- need_image: boolean (true if the query suggests the farmer should upload an image for better diagnosis)
- note: string (a brief, one-sentence summary of what the farmer is asking about)

IMPORTANT:
- Return ONLY the JSON object, no explanations, no markdown formatting, just pure JSON
- If no crop is mentioned, set crop to null
- Be accurate in identifying crop names and symptoms
- Set need_image to true if the query is about visual problems (diseases, pests, leaf issues, etc.)`

type intentPayload struct {
	Crop      string `json:"crop"`
	Symptoms  string `json:"symptoms"`
	NeedImage bool   `json:"need_image"`
	Note      string `json:"note"`
}

// intentExtract asks the generator for structured crop/symptom info and
// appends the user turn to the conversation log. Extraction failure leaves
// crop unset; the run continues.
func (s *Service) intentExtract(ctx context.Context, st *pipelineState) {
	if st.transcript == "" && st.input.Image != nil {
		st.transcript = imagePlaceholderTranscript
	}

	st.messages = append(st.messages, domain.Message{Role: "user", Content: st.transcript})

	if !st.hasQuestion() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	raw, err := s.generator.Generate(ctx, ports.GenerateRequest{
		Prompt:       "Transcript: " + st.transcript + "\n\nExtract the information as JSON:",
		Instructions: intentInstruction,
	})
	if err != nil {
		s.stageFailed("intent_extract", err)
		return
	}

	var parsed intentPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		s.log.Debug("intent extraction returned non-JSON output", zap.Error(err))
		return
	}

	if crop := strings.TrimSpace(parsed.Crop); crop != "" && !strings.EqualFold(crop, "null") {
		st.crop = strings.ToLower(crop)
	}
}

// stripCodeFences unwraps JSON that the model returned inside a markdown
// code block.
func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "```json"); i >= 0 {
		raw = raw[i+len("```json"):]
	} else if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[i+len("```"):]
	} else {
		return raw
	}
	if j := strings.Index(raw, "```"); j >= 0 {
		raw = raw[:j]
	}
	return strings.TrimSpace(raw)
}

// classify runs the disease model over the photo. A classifier error is kept
// as a marker on the state rather than failing the run.
func (s *Service) classify(ctx context.Context, st *pipelineState) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ClassifyTimeout)
	defer cancel()

	cls, err := s.classifier.Classify(ctx, *st.input.Image)
	if err != nil {
		s.stageFailed("classify", err)
		st.classification = &domain.Classification{Err: err.Error()}
		return
	}
	st.classification = cls
}

// lookupForecast fetches weather for the supplied coordinates. Failure or an
// empty forecast leaves the field unset.
func (s *Service) lookupForecast(ctx context.Context, st *pipelineState) {
	loc := st.input.Location
	if loc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.WeatherTimeout)
	defer cancel()

	f, err := s.weather.Forecast(ctx, loc.Lat, loc.Lon)
	if err != nil {
		s.stageFailed("forecast", err)
		return
	}
	if f.Empty() {
		return
	}
	st.forecast = f
}

// generate produces the reply via the fallback ladder. The reply is always
// non-empty after this stage.
func (s *Service) generate(ctx context.Context, st *pipelineState) {
	instructions := instructionFor(st.modality) + languageInstruction(st.language)
	prompt := buildPrompt(st)

	reply, rung := s.generateWithFallback(ctx, st, prompt, instructions)
	if strings.TrimSpace(reply) == "" {
		reply = guaranteedReply
	}

	st.reply = reply
	st.fallbackRung = rung
	telemetry.GenerationRungsTotal.WithLabelValues(rung).Inc()
}

// generateWithFallback walks the ladder: multimodal generation, text-only
// generation, keyword-matched canned advice, then the deterministic generic
// string. A rung is tried only when the previous one errored or came back
// empty; a recognized generator error resolves to its fixed advisory text.
func (s *Service) generateWithFallback(ctx context.Context, st *pipelineState, prompt, instructions string) (string, string) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	if st.input.Image != nil {
		text, err := s.generator.Generate(ctx, ports.GenerateRequest{
			Prompt:       prompt,
			Instructions: instructions,
			Image:        st.input.Image,
		})
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), "multimodal"
		}
		s.log.Warn("multimodal generation failed, trying text-only", zap.Error(err))
	}

	text, err := s.generator.Generate(ctx, ports.GenerateRequest{
		Prompt:       prompt,
		Instructions: instructions,
	})
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), "text"
	}
	if err != nil {
		if msg := advisoryForGeneratorError(err); msg != "" {
			return msg, "advisory"
		}
		s.stageFailed("generate", err)
	}

	if msg := cannedAdvice(st.transcript); st.hasQuestion() && msg != "" {
		return msg, "canned"
	}

	if st.hasQuestion() {
		return genericFallback(st.transcript), "generic"
	}
	return genericFallback(""), "generic"
}

// synthesize renders the reply to speech. One retry with English and a
// bounded text; still failing leaves the speech path unset, never fatal.
func (s *Service) synthesize(ctx context.Context, st *pipelineState) {
	text := CleanForSpeech(st.reply)
	if text == "" {
		text = boundText(st.reply, 500)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SynthesizeTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		telemetry.SpeechSynthesisDuration.Observe(time.Since(start).Seconds())
	}()

	path, err := s.synthesizer.Synthesize(ctx, text, st.language)
	if err != nil {
		s.log.Warn("speech synthesis failed, retrying with english fallback", zap.Error(err))
		path, err = s.synthesizer.Synthesize(ctx, boundText(text, 500), domain.LanguageEnglish)
		if err != nil {
			s.stageFailed("synthesize", err)
			return
		}
	}
	st.speechPath = path
}

// persist writes the finished record and emits the completion event. Both
// are fire-and-forget: failures are logged and never touch the result.
func (s *Service) persist(ctx context.Context, st *pipelineState) {
	conv := s.buildConversation(ctx, st)
	if err := s.convRepo.Save(ctx, conv); err != nil {
		s.stageFailed("persist", err)
	}
	s.publishCompleted(conv, st)
}

func (s *Service) buildConversation(ctx context.Context, st *pipelineState) *domain.Conversation {
	userID := ""
	if ext := strings.TrimSpace(st.input.UserID); ext != "" && ext != "unknown" {
		u, err := s.userRepo.FindOrCreateByExternalID(ctx, ext)
		if err != nil {
			s.log.Warn("user lookup failed, persisting without user link", zap.Error(err))
		} else if u != nil {
			userID = u.ID
		}
	}

	var confidence *float64
	if st.classification != nil && st.classification.Err == "" {
		c := st.classification.Confidence
		confidence = &c
	}

	mediaURL := ""
	if st.input.Image != nil {
		mediaURL = st.input.Image.Path
	}

	meta := domain.ConversationMetadata{
		"user_id":  st.input.UserID,
		"crop":     st.crop,
		"language": string(st.language),
	}
	if st.input.Location != nil {
		meta["gps"] = st.input.Location
	}
	if st.classification != nil {
		meta["vision_result"] = st.classification
	}
	if st.forecast != nil {
		meta["weather_forecast"] = st.forecast
	}
	if len(st.messages) > 0 {
		meta["messages"] = st.messages
	}

	return &domain.Conversation{
		ID:         uuid.NewString(),
		UserID:     userID,
		Transcript: st.transcript,
		Confidence: confidence,
		MediaURL:   mediaURL,
		TTSPath:    st.speechPath,
		Metadata:   meta,
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *Service) publishCompleted(conv *domain.Conversation, st *pipelineState) {
	if s.mq == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"conversation_id": conv.ID,
		"user_id":         st.input.UserID,
		"language":        string(st.language),
		"crop":            st.crop,
		"modality":        st.modality.String(),
	})
	if err != nil {
		return
	}
	if err := s.mq.Publish("advisory.completed", payload); err != nil {
		s.log.Warn("completion event not published", zap.Error(err))
	}
}
