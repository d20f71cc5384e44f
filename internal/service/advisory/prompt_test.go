package advisory

import (
	"errors"
	"strings"
	"testing"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

var errAny = errors.New("backend unavailable")

func TestClassifyModality(t *testing.T) {
	audio := &domain.MediaRef{Path: "a.webm"}
	image := &domain.MediaRef{Path: "leaf.jpg"}

	cases := []struct {
		name string
		in   *domain.AdvisoryInput
		want modality
	}{
		{"audio wins", &domain.AdvisoryInput{Audio: audio, Image: image, Text: "x"}, modalityVoice},
		{"image without text", &domain.AdvisoryInput{Image: image}, modalityImageOnly},
		{"image with text", &domain.AdvisoryInput{Image: image, Text: "what is this?"}, modalityImageWithText},
		{"plain text", &domain.AdvisoryInput{Text: "hello"}, modalityChat},
	}

	for _, tc := range cases {
		if got := classifyModality(tc.in); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestBuildContext_ImageWithoutQuestion(t *testing.T) {
	st := &pipelineState{
		input:      &domain.AdvisoryInput{Image: &domain.MediaRef{Path: "leaf.jpg"}},
		transcript: imagePlaceholderTranscript,
	}

	got := buildContext(st)
	if !strings.Contains(got, "uploaded an image for analysis") {
		t.Errorf("placeholder transcript must not appear as a query: %q", got)
	}
	if strings.Contains(got, imagePlaceholderTranscript) {
		t.Errorf("placeholder transcript leaked into context: %q", got)
	}
}

func TestBuildContext_ClassificationOnlyWhenDetected(t *testing.T) {
	base := &domain.AdvisoryInput{Image: &domain.MediaRef{Path: "leaf.jpg"}}

	st := &pipelineState{
		input:          base,
		transcript:     "what is this spot?",
		classification: &domain.Classification{Label: domain.NoDetectionLabel},
	}
	if got := buildContext(st); strings.Contains(got, "Computer vision analysis detected") {
		t.Errorf("no_detection verdict surfaced as a finding: %q", got)
	}

	st.classification = &domain.Classification{Label: "leaf_spot", Confidence: 0.87}
	got := buildContext(st)
	if !strings.Contains(got, "leaf_spot") || !strings.Contains(got, "87.0%") {
		t.Errorf("detected finding missing or misformatted: %q", got)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	st := &pipelineState{input: &domain.AdvisoryInput{}}
	if got := buildContext(st); got != "No additional context available." {
		t.Errorf("unexpected empty context: %q", got)
	}
}

func TestSummarizeForecast(t *testing.T) {
	if got := summarizeForecast(nil); got != "" {
		t.Errorf("nil forecast must summarize to empty, got %q", got)
	}

	f := &domain.Forecast{Hourly: domain.HourlyForecast{
		Temperature2M:      []float64{29.3},
		RelativeHumidity2M: []float64{78},
		Precipitation:      []float64{0},
	}}
	got := summarizeForecast(f)
	if !strings.Contains(got, "29.3°C") || !strings.Contains(got, "78%") {
		t.Errorf("summary missing readings: %q", got)
	}
	if strings.Contains(got, "precipitation") {
		t.Errorf("zero precipitation must be omitted: %q", got)
	}
}

func TestLanguageInstruction(t *testing.T) {
	if !strings.Contains(languageInstruction(domain.LanguageBengali), "ONLY in Bengali") {
		t.Error("bengali instruction missing")
	}
	if !strings.Contains(languageInstruction(domain.LanguageEnglish), "ONLY in English") {
		t.Error("english instruction missing")
	}
}

func TestAdvisoryForGeneratorError_Unrecognized(t *testing.T) {
	if got := advisoryForGeneratorError(errAny); got != "" {
		t.Errorf("unrecognized error must yield empty advisory, got %q", got)
	}
}
