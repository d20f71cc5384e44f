package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps media artifacts on local disk under a single root directory.
// References are uuid-based file names relative to the root; anything that
// resolves outside the root is refused.
type Store struct {
	root string
	log  *zap.Logger
}

// NewStore creates the root directory if needed and returns the store.
func NewStore(root string, log *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("artifacts: root directory not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create root: %w", err)
	}
	return &Store{root: root, log: log}, nil
}

// Root returns the absolute root directory of the store.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) SaveUpload(r io.Reader, originalName, mimeType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = extForMime(mimeType)
	}

	w, ref, err := s.Create(ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		os.Remove(filepath.Join(s.root, ref))
		return "", fmt.Errorf("artifacts: write upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("artifacts: finalize upload: %w", err)
	}

	s.log.Debug("artifact stored", zap.String("ref", ref), zap.String("mime", mimeType))
	return ref, nil
}

func (s *Store) Create(ext string) (io.WriteCloser, string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ref := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.root, ref))
	if err != nil {
		return nil, "", fmt.Errorf("artifacts: create file: %w", err)
	}
	return f, ref, nil
}

func (s *Store) Open(ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open %q: %w", ref, err)
	}
	return f, nil
}

// Path resolves a reference to its absolute on-disk path, confined to the
// store root.
func (s *Store) Path(ref string) (string, error) {
	return s.resolve(ref)
}

func (s *Store) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("artifacts: empty reference")
	}

	path := filepath.Join(s.root, filepath.Clean("/"+ref))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("artifacts: reference %q escapes the store", ref)
	}
	return path, nil
}

func extForMime(mime string) string {
	switch {
	case strings.HasPrefix(mime, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mime, "audio/mpeg"):
		return ".mp3"
	case strings.HasPrefix(mime, "audio/wav"):
		return ".wav"
	case strings.HasPrefix(mime, "audio/ogg"):
		return ".ogg"
	case strings.HasPrefix(mime, "image/png"):
		return ".png"
	case strings.HasPrefix(mime, "image/jpeg"):
		return ".jpg"
	default:
		return ".bin"
	}
}
