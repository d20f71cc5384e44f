package ports

import "io"

// ArtifactStore keeps uploaded media and synthesized speech on durable
// storage, addressed by opaque references.
type ArtifactStore interface {
	// SaveUpload persists an incoming media stream and returns its reference.
	SaveUpload(r io.Reader, originalName, mimeType string) (string, error)
	// Create opens a writable artifact with the given extension and returns
	// the writer plus the reference the caller hands out.
	Create(ext string) (io.WriteCloser, string, error)
	// Open resolves a previously returned reference. Implementations must
	// refuse references outside their root.
	Open(ref string) (io.ReadCloser, error)
}
