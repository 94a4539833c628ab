package reveal

// FragmentStream is a lazy, finite, non-restartable sequence of text
// fragments from a generation service. It uses the pull-based iterator
// pattern: Next returns io.EOF when the stream ends normally and any other
// error when it fails. Cancellation flows through the context passed to
// Generator.Stream; after cancellation Next must return promptly with an
// error.
//
// Close releases the underlying transport. It is safe to call Close before
// the stream is exhausted.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}
