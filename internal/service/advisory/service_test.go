package advisory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/mocks"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

type fixture struct {
	transcriber *mocks.MockTranscriber
	classifier  *mocks.MockImageClassifier
	weather     *mocks.MockWeatherProvider
	generator   *mocks.MockResponseGenerator
	synthesizer *mocks.MockSynthesizer
	convRepo    *mocks.MockConversationRepository
	userRepo    *mocks.MockUserRepository
	mq          *mocks.MockMessageQueue
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		transcriber: &mocks.MockTranscriber{},
		classifier:  &mocks.MockImageClassifier{},
		weather:     &mocks.MockWeatherProvider{},
		generator:   &mocks.MockResponseGenerator{},
		synthesizer: &mocks.MockSynthesizer{},
		convRepo:    &mocks.MockConversationRepository{},
		userRepo:    &mocks.MockUserRepository{},
		mq:          &mocks.MockMessageQueue{},
	}
	f.svc = NewService(
		f.transcriber,
		f.classifier,
		f.weather,
		f.generator,
		f.synthesizer,
		f.convRepo,
		f.userRepo,
		f.mq,
		Config{},
		zap.NewNop(),
	)
	return f
}

func TestRun_EmptyBundleShortCircuits(t *testing.T) {
	// Arrange
	f := newFixture()

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{})

	// Assert
	if result.Reply != emptyInputAdvisory {
		t.Errorf("expected empty-input advisory, got %q", result.Reply)
	}
	if result.Language != domain.LanguageEnglish {
		t.Errorf("expected english language, got %q", result.Language)
	}
	if result.SpeechPath != "" {
		t.Errorf("expected no speech for empty bundle, got %q", result.SpeechPath)
	}
	if f.transcriber.Calls != 0 || f.classifier.Calls != 0 || f.weather.Calls != 0 ||
		len(f.generator.Requests) != 0 || len(f.synthesizer.Texts) != 0 {
		t.Error("empty bundle must not invoke any capability")
	}
	if len(f.convRepo.Saved) != 0 {
		t.Error("empty bundle must not be persisted")
	}
}

func TestRun_TextWinsOverAudio(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "water the field in the morning", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{
		Text:  "when should I water rice?",
		Audio: &domain.MediaRef{Path: "/tmp/q.webm", MimeType: "audio/webm"},
	})

	// Assert
	if f.transcriber.Calls != 0 {
		t.Errorf("transcriber invoked %d times despite text being present", f.transcriber.Calls)
	}
	if result.Transcript != "when should I water rice?" {
		t.Errorf("unexpected transcript %q", result.Transcript)
	}
}

func TestRun_VoiceBundleTranscribes(t *testing.T) {
	// Arrange
	f := newFixture()
	f.transcriber.TranscribeFunc = func(ctx context.Context, audio domain.MediaRef) (domain.Transcription, error) {
		return domain.Transcription{Text: "টমেটো গাছে পোকা ধরেছে"}, nil
	}
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "নিম তেল স্প্রে করুন", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{
		Audio: &domain.MediaRef{Path: "/tmp/q.webm", MimeType: "audio/webm"},
	})

	// Assert
	if f.transcriber.Calls != 1 {
		t.Fatalf("expected one transcribe call, got %d", f.transcriber.Calls)
	}
	if result.Language != domain.LanguageBengali {
		t.Errorf("expected bengali detected from transcript, got %q", result.Language)
	}
	if result.Reply != "নিম তেল স্প্রে করুন" {
		t.Errorf("unexpected reply %q", result.Reply)
	}
}

func TestRun_ClassifierOnlyForImages(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "advice", nil
	}

	// Act: chat bundle without an image
	f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "how to grow potato?"})

	// Assert
	if f.classifier.Calls != 0 {
		t.Errorf("classifier invoked for a bundle without an image")
	}

	// Act: image bundle
	f.classifier.ClassifyFunc = func(ctx context.Context, image domain.MediaRef) (*domain.Classification, error) {
		return &domain.Classification{Label: "late_blight", Confidence: 0.91}, nil
	}
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{
		Image: &domain.MediaRef{Path: "/tmp/leaf.jpg", MimeType: "image/jpeg"},
	})

	// Assert
	if f.classifier.Calls != 1 {
		t.Fatalf("expected one classify call, got %d", f.classifier.Calls)
	}
	if result.Classification == nil || result.Classification.Label != "late_blight" {
		t.Errorf("classification missing from result: %+v", result.Classification)
	}
	if result.Transcript != imagePlaceholderTranscript {
		t.Errorf("expected placeholder transcript, got %q", result.Transcript)
	}
}

func TestRun_BengaliQueryCarriesBengaliContract(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "ধান ভালো রাখতে পানি দিন", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "ধানের রোগ হলে কী করব?"})

	// Assert
	if result.Language != domain.LanguageBengali {
		t.Fatalf("expected bengali, got %q", result.Language)
	}
	var generation *ports.GenerateRequest
	for i := range f.generator.Requests {
		if f.generator.Requests[i].Instructions != intentInstruction {
			generation = &f.generator.Requests[i]
		}
	}
	if generation == nil {
		t.Fatal("no generation request captured")
	}
	if !strings.Contains(generation.Instructions, "ONLY in Bengali") {
		t.Errorf("instructions missing bengali contract: %q", generation.Instructions)
	}
	if !strings.Contains(generation.Prompt, "Bengali (বাংলা)") {
		t.Errorf("prompt missing bengali language name: %q", generation.Prompt)
	}
}

func TestRun_QuotaErrorResolvesToAdvisoryAndStillSpeaks(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "", ports.ErrQuotaExceeded
	}
	f.synthesizer.SynthesizeFunc = func(ctx context.Context, text string, lang domain.Language) (string, error) {
		return "/data/tts/reply.mp3", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "my rice is yellowing"})

	// Assert
	if result.Reply != quotaAdvisory {
		t.Errorf("expected quota advisory, got %q", result.Reply)
	}
	if result.SpeechPath != "/data/tts/reply.mp3" {
		t.Errorf("advisory reply must still be synthesized, got path %q", result.SpeechPath)
	}
}

func TestRun_StoreFailureDoesNotChangeResult(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "use balanced fertilizer", nil
	}
	f.synthesizer.SynthesizeFunc = func(ctx context.Context, text string, lang domain.Language) (string, error) {
		return "/data/tts/ok.mp3", nil
	}
	f.convRepo.SaveFunc = func(ctx context.Context, conv *domain.Conversation) error {
		return errors.New("connection refused")
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "fertilizer for wheat?"})

	// Assert
	if result.Reply != "use balanced fertilizer" {
		t.Errorf("persistence failure leaked into the reply: %q", result.Reply)
	}
	if result.SpeechPath != "/data/tts/ok.mp3" {
		t.Errorf("persistence failure leaked into the speech path: %q", result.SpeechPath)
	}
}

func TestRun_PersistLinksUserAndPublishesEvent(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "advice", nil
	}

	// Act
	f.svc.Run(context.Background(), &domain.AdvisoryInput{
		Text:   "potato storage tips",
		UserID: "farmer-42",
	})

	// Assert
	if f.userRepo.Calls != 1 {
		t.Errorf("expected one user lookup, got %d", f.userRepo.Calls)
	}
	if len(f.convRepo.Saved) != 1 {
		t.Fatalf("expected one saved conversation, got %d", len(f.convRepo.Saved))
	}
	saved := f.convRepo.Saved[0]
	if saved.UserID != "user-1" {
		t.Errorf("conversation not linked to resolved user: %q", saved.UserID)
	}
	if len(f.mq.Published["advisory.completed"]) != 1 {
		t.Errorf("expected one advisory.completed event, got %d", len(f.mq.Published["advisory.completed"]))
	}
}

func TestRun_UnknownUserSkipsLookup(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "advice", nil
	}

	// Act
	f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "hello", UserID: "unknown"})

	// Assert
	if f.userRepo.Calls != 0 {
		t.Errorf("anonymous caller must not trigger user lookup, got %d calls", f.userRepo.Calls)
	}
}

func TestRun_SynthesisFailureRetriesEnglishThenDegrades(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "ধানের জমিতে পানি ধরে রাখুন", nil
	}
	f.synthesizer.SynthesizeFunc = func(ctx context.Context, text string, lang domain.Language) (string, error) {
		return "", errors.New("tts unavailable")
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "ধানের জন্য পরামর্শ দিন"})

	// Assert
	if len(f.synthesizer.Langs) != 2 {
		t.Fatalf("expected primary attempt plus english retry, got %d calls", len(f.synthesizer.Langs))
	}
	if f.synthesizer.Langs[1] != domain.LanguageEnglish {
		t.Errorf("retry must use english, got %q", f.synthesizer.Langs[1])
	}
	if result.SpeechPath != "" {
		t.Errorf("speech path must stay unset after both attempts fail, got %q", result.SpeechPath)
	}
	if result.Reply == "" {
		t.Error("reply must survive synthesis failure")
	}
}

func TestGenerateWithFallback_Ladder(t *testing.T) {
	t.Run("multimodal failure descends to text rung", func(t *testing.T) {
		f := newFixture()
		f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
			if req.Image != nil {
				return "", errors.New("image pipeline down")
			}
			return "text-only worked", nil
		}

		result := f.svc.Run(context.Background(), &domain.AdvisoryInput{
			Text:  "what is wrong with this leaf?",
			Image: &domain.MediaRef{Path: "/tmp/leaf.jpg", MimeType: "image/jpeg"},
		})

		if result.Reply != "text-only worked" {
			t.Errorf("expected text rung reply, got %q", result.Reply)
		}
	})

	t.Run("unrecognized failure with tomato keyword hits canned advice", func(t *testing.T) {
		f := newFixture()
		f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
			return "", errors.New("network down")
		}

		result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "tomato plant help"})

		if result.Reply != tomatoAdvice {
			t.Errorf("expected canned tomato advice, got %q", result.Reply)
		}
	})

	t.Run("no keyword falls to generic echo", func(t *testing.T) {
		f := newFixture()
		f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
			return "", errors.New("network down")
		}

		result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "jute retting advice"})

		if !strings.Contains(result.Reply, "jute retting advice") {
			t.Errorf("generic fallback must echo the question, got %q", result.Reply)
		}
	})
}

func TestRun_ForecastAttachedWhenLocationPresent(t *testing.T) {
	// Arrange
	f := newFixture()
	f.weather.ForecastFunc = func(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
		return &domain.Forecast{
			Latitude: lat, Longitude: lon,
			Hourly: domain.HourlyForecast{
				Time:               []string{"2026-08-27T06:00"},
				Temperature2M:      []float64{31.5},
				RelativeHumidity2M: []float64{84},
				Precipitation:      []float64{2.4},
			},
		}, nil
	}
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "hold off irrigation before the rain", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{
		Text:     "should I irrigate today?",
		Location: &domain.GeoPoint{Lat: 23.8103, Lon: 90.4125},
	})

	// Assert
	if f.weather.Calls != 1 {
		t.Fatalf("expected one forecast call, got %d", f.weather.Calls)
	}
	if result.Forecast == nil || result.Forecast.Latitude != 23.8103 {
		t.Errorf("forecast missing from result: %+v", result.Forecast)
	}
	last := f.generator.Requests[len(f.generator.Requests)-1]
	if !strings.Contains(last.Prompt, "Temperature: 31.5°C") {
		t.Errorf("prompt missing weather summary: %q", last.Prompt)
	}
}

func TestRun_NoLocationSkipsWeather(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		return "advice", nil
	}

	// Act
	f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "hello"})

	// Assert
	if f.weather.Calls != 0 {
		t.Errorf("weather looked up without coordinates, %d calls", f.weather.Calls)
	}
}

func TestRun_IntentExtractionSetsCrop(t *testing.T) {
	// Arrange
	f := newFixture()
	f.generator.GenerateFunc = func(ctx context.Context, req ports.GenerateRequest) (string, error) {
		if req.Instructions == intentInstruction {
			return "```json\n{\"crop\": \"Rice\", \"symptoms\": \"yellow leaves\", \"need_image\": true, \"note\": \"disease question\"}\n```", nil
		}
		return "apply urea in split doses", nil
	}

	// Act
	result := f.svc.Run(context.Background(), &domain.AdvisoryInput{Text: "my rice leaves are yellow"})

	// Assert
	if result.Crop != "rice" {
		t.Errorf("expected lowercased crop from intent extraction, got %q", result.Crop)
	}
}
