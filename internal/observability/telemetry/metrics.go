package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmassist_pipeline_runs_total",
		Help: "Advisory pipeline runs by input modality",
	}, []string{"modality"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "farmassist_pipeline_duration_seconds",
		Help:    "End-to-end advisory pipeline latency",
		Buckets: prometheus.DefBuckets,
	})

	StageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmassist_stage_failures_total",
		Help: "Capability failures absorbed per pipeline stage",
	}, []string{"stage"})

	GenerationRungsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmassist_generation_rungs_total",
		Help: "Which rung of the generation fallback ladder produced the reply",
	}, []string{"rung"})

	// Infrastructure metrics
	WeatherLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmassist_weather_lookups_total",
		Help: "Open-Meteo lookups by outcome",
	}, []string{"outcome"})

	SpeechSynthesisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "farmassist_speech_synthesis_seconds",
		Help:    "Text-to-speech synthesis latency",
		Buckets: prometheus.DefBuckets,
	})
)
