package mock

import "github.com/fwojciec/reveal"

// Interface compliance check.
var _ reveal.FragmentStream = (*FragmentStream)(nil)

// FragmentStream is a test double for reveal.FragmentStream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe because
// callers always close the stream and it rarely needs custom behavior.
type FragmentStream struct {
	NextFn  func() (string, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *FragmentStream) Next() (string, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *FragmentStream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
