package mocks

import (
	"context"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

// MockTranscriber is a mock implementation of ports.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio domain.MediaRef) (domain.Transcription, error)
	Calls          int
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio domain.MediaRef) (domain.Transcription, error) {
	m.Calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio)
	}
	return domain.Transcription{}, nil
}

// MockImageClassifier is a mock implementation of ports.ImageClassifier
type MockImageClassifier struct {
	ClassifyFunc func(ctx context.Context, image domain.MediaRef) (*domain.Classification, error)
	Calls        int
}

func (m *MockImageClassifier) Classify(ctx context.Context, image domain.MediaRef) (*domain.Classification, error) {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, image)
	}
	return &domain.Classification{Label: domain.NoDetectionLabel}, nil
}

// MockWeatherProvider is a mock implementation of ports.WeatherProvider
type MockWeatherProvider struct {
	ForecastFunc func(ctx context.Context, lat, lon float64) (*domain.Forecast, error)
	Calls        int
}

func (m *MockWeatherProvider) Forecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	m.Calls++
	if m.ForecastFunc != nil {
		return m.ForecastFunc(ctx, lat, lon)
	}
	return &domain.Forecast{}, nil
}

// MockResponseGenerator is a mock implementation of ports.ResponseGenerator.
// Requests records every GenerateRequest in call order so tests can assert
// on prompts and instructions.
type MockResponseGenerator struct {
	GenerateFunc func(ctx context.Context, req ports.GenerateRequest) (string, error)
	Requests     []ports.GenerateRequest
}

func (m *MockResponseGenerator) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// MockSynthesizer is a mock implementation of ports.Synthesizer
type MockSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, text string, lang domain.Language) (string, error)
	Texts          []string
	Langs          []domain.Language
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, lang domain.Language) (string, error) {
	m.Texts = append(m.Texts, text)
	m.Langs = append(m.Langs, lang)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, lang)
	}
	return "", nil
}
