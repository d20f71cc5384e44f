package queue

// MessageQueue carries fire-and-forget advisory events ("advisory.completed")
// to background workers. Publish failures must never affect a pipeline run.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
