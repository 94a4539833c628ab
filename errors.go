package reveal

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a configuration or request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSessionActive indicates Start was called while a session is streaming
	// or draining.
	ErrSessionActive = errors.New("session already active")

	// ErrEmptyPrompt indicates Start was called with a blank prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrIdleTimeout indicates the generation service stopped delivering
	// fragments for longer than the configured idle timeout.
	ErrIdleTimeout = errors.New("no fragment received within idle timeout")

	// ErrStreamClosed indicates an operation on a closed fragment stream.
	ErrStreamClosed = errors.New("stream closed")
)
