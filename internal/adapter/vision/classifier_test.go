package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	if err := os.WriteFile(path, []byte("jpegbytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClassify_ParsesPrediction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"disease":"late_blight","confidence":0.93,"raw_detections":[{"label":"late_blight","confidence":0.93}]}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, zap.NewNop())
	cls, err := c.Classify(context.Background(), domain.MediaRef{Path: writeTempImage(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.Label != "late_blight" || cls.Confidence != 0.93 {
		t.Errorf("got %+v", cls)
	}
	if !cls.Detected() {
		t.Error("expected an actionable finding")
	}
}

func TestClassify_EmptyLabelBecomesNoDetection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"disease":"","confidence":0}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, zap.NewNop())
	cls, err := c.Classify(context.Background(), domain.MediaRef{Path: writeTempImage(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.Label != domain.NoDetectionLabel {
		t.Errorf("got label %q", cls.Label)
	}
	if cls.Detected() {
		t.Error("no_detection must not count as a finding")
	}
}

func TestClassify_Unconfigured(t *testing.T) {
	c := NewClassifier("", zap.NewNop())
	if _, err := c.Classify(context.Background(), domain.MediaRef{Path: "x.jpg"}); err == nil {
		t.Fatal("expected error for unconfigured server")
	}
}

func TestClassify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClassifier(server.URL, zap.NewNop())
	if _, err := c.Classify(context.Background(), domain.MediaRef{Path: writeTempImage(t)}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
