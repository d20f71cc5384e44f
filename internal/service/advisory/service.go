package advisory

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/adapter/queue"
	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/observability/telemetry"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

// imagePlaceholderTranscript stands in for the transcript when a photo
// arrives with no question at all.
const imagePlaceholderTranscript = "Image uploaded without a question."

// Config bounds every remote capability call. A timed-out call is handled
// exactly like any other capability failure.
type Config struct {
	TranscribeTimeout time.Duration
	ClassifyTimeout   time.Duration
	WeatherTimeout    time.Duration
	GenerateTimeout   time.Duration
	SynthesizeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.TranscribeTimeout <= 0 {
		c.TranscribeTimeout = 60 * time.Second
	}
	if c.ClassifyTimeout <= 0 {
		c.ClassifyTimeout = 30 * time.Second
	}
	if c.WeatherTimeout <= 0 {
		c.WeatherTimeout = 10 * time.Second
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 90 * time.Second
	}
	if c.SynthesizeTimeout <= 0 {
		c.SynthesizeTimeout = 30 * time.Second
	}
	return c
}

// Service orchestrates one advisory pipeline run: a fixed acyclic set of
// stages over a single mutable state, routed by which inputs are present.
// Stages within a run execute strictly sequentially; concurrent runs share
// nothing but the injected collaborators.
type Service struct {
	transcriber ports.Transcriber
	classifier  ports.ImageClassifier
	weather     ports.WeatherProvider
	generator   ports.ResponseGenerator
	synthesizer ports.Synthesizer
	convRepo    ports.ConversationRepository
	userRepo    ports.UserRepository
	mq          queue.MessageQueue
	cfg         Config
	log         *zap.Logger
	tracer      trace.Tracer
}

func NewService(
	transcriber ports.Transcriber,
	classifier ports.ImageClassifier,
	weather ports.WeatherProvider,
	generator ports.ResponseGenerator,
	synthesizer ports.Synthesizer,
	convRepo ports.ConversationRepository,
	userRepo ports.UserRepository,
	mq queue.MessageQueue,
	cfg Config,
	log *zap.Logger,
) *Service {
	return &Service{
		transcriber: transcriber,
		classifier:  classifier,
		weather:     weather,
		generator:   generator,
		synthesizer: synthesizer,
		convRepo:    convRepo,
		userRepo:    userRepo,
		mq:          mq,
		cfg:         cfg.withDefaults(),
		log:         log,
		tracer:      otel.Tracer("advisory"),
	}
}

// pipelineState is owned by exactly one run and written by exactly one stage
// at a time. It is discarded once the result is assembled.
type pipelineState struct {
	input          *domain.AdvisoryInput
	modality       modality
	transcript     string
	language       domain.Language
	crop           string
	classification *domain.Classification
	forecast       *domain.Forecast
	reply          string
	speechPath     string
	messages       []domain.Message
	fallbackRung   string
}

// hasQuestion reports whether the transcript carries an actual query, as
// opposed to being empty or the image-without-question placeholder.
func (st *pipelineState) hasQuestion() bool {
	return st.transcript != "" && st.transcript != imagePlaceholderTranscript
}

func (st *pipelineState) result() *domain.AdvisoryResult {
	return &domain.AdvisoryResult{
		Transcript:     st.transcript,
		Reply:          st.reply,
		Crop:           st.crop,
		Language:       st.language,
		Classification: st.classification,
		Forecast:       st.forecast,
		SpeechPath:     st.speechPath,
	}
}

type stageID int

const (
	stageStart stageID = iota
	stageTranscribe
	stageAdoptText
	stageIntent
	stageClassify
	stageForecast
	stageGenerate
	stageSynthesize
	stagePersist
	stageDone
)

func (s stageID) String() string {
	switch s {
	case stageTranscribe:
		return "transcribe"
	case stageAdoptText:
		return "adopt_text"
	case stageIntent:
		return "intent_extract"
	case stageClassify:
		return "classify"
	case stageForecast:
		return "forecast"
	case stageGenerate:
		return "generate"
	case stageSynthesize:
		return "synthesize"
	case stagePersist:
		return "persist"
	default:
		return "start"
	}
}

// nextStage is the pure routing function, evaluated after each stage.
// Caller-supplied text wins over audio; an image routes through Classify
// before Forecast; everything downstream of Forecast is a fixed edge.
func nextStage(cur stageID, st *pipelineState) stageID {
	switch cur {
	case stageStart:
		switch {
		case strings.TrimSpace(st.input.Text) != "":
			return stageAdoptText
		case st.input.Audio != nil:
			return stageTranscribe
		default:
			return stageIntent
		}
	case stageTranscribe, stageAdoptText:
		return stageIntent
	case stageIntent:
		if st.input.Image != nil {
			return stageClassify
		}
		return stageForecast
	case stageClassify:
		return stageForecast
	case stageForecast:
		return stageGenerate
	case stageGenerate:
		if st.reply != "" {
			return stageSynthesize
		}
		return stagePersist
	case stageSynthesize:
		return stagePersist
	default:
		return stageDone
	}
}

// Run executes the full pipeline for one input bundle. It never fails: every
// stage degrades to a documented fallback, and the reply is guaranteed
// non-empty. A bundle with no audio, no text, and no image short-circuits to
// a fixed advisory without invoking any capability.
func (s *Service) Run(ctx context.Context, in *domain.AdvisoryInput) *domain.AdvisoryResult {
	start := time.Now()

	if in.Empty() {
		s.log.Info("advisory run with empty input bundle, short-circuiting")
		telemetry.PipelineRunsTotal.WithLabelValues("empty").Inc()
		return &domain.AdvisoryResult{
			Reply:    emptyInputAdvisory,
			Language: domain.LanguageEnglish,
		}
	}

	st := &pipelineState{
		input:    in,
		modality: classifyModality(in),
		language: domain.LanguageEnglish,
	}
	telemetry.PipelineRunsTotal.WithLabelValues(st.modality.String()).Inc()

	for id := nextStage(stageStart, st); id != stageDone; id = nextStage(id, st) {
		s.runStage(ctx, id, st)
	}

	telemetry.PipelineDuration.Observe(time.Since(start).Seconds())
	s.log.Info("advisory run complete",
		zap.String("modality", st.modality.String()),
		zap.String("language", string(st.language)),
		zap.String("crop", st.crop),
		zap.String("fallback_rung", st.fallbackRung),
		zap.Duration("elapsed", time.Since(start)),
	)
	return st.result()
}

func (s *Service) runStage(ctx context.Context, id stageID, st *pipelineState) {
	ctx, span := s.tracer.Start(ctx, "pipeline."+id.String())
	defer span.End()

	switch id {
	case stageTranscribe:
		s.transcribe(ctx, st)
	case stageAdoptText:
		s.adoptText(st)
	case stageIntent:
		s.intentExtract(ctx, st)
	case stageClassify:
		s.classify(ctx, st)
	case stageForecast:
		s.lookupForecast(ctx, st)
	case stageGenerate:
		s.generate(ctx, st)
	case stageSynthesize:
		s.synthesize(ctx, st)
	case stagePersist:
		s.persist(ctx, st)
	}
}

func (s *Service) stageFailed(stage string, err error) {
	telemetry.StageFailuresTotal.WithLabelValues(stage).Inc()
	s.log.Warn("pipeline stage degraded", zap.String("stage", stage), zap.Error(err))
}
