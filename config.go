package reveal

import "time"

// Default playback parameters. TickInterval × ChunkSize sets the visible
// reveal rate (about 1250 characters per second at these values).
const (
	DefaultTickInterval   = 120 * time.Millisecond
	DefaultChunkSize      = 150
	DefaultIdleTimeout    = 30 * time.Second
	DefaultFailureMessage = "Sorry, something went wrong while generating a reply. Please try again."
)

// Config controls session playback. Use DefaultConfig and override fields.
type Config struct {
	// TickInterval is the fixed cadence of the reveal timer.
	TickInterval time.Duration
	// ChunkSize is the maximum number of characters revealed per tick.
	ChunkSize int
	// IdleTimeout fails a session when no fragment arrives for this long.
	// Zero disables the timeout.
	IdleTimeout time.Duration
	// MaxBufferAhead pauses fragment consumption while this many received
	// characters are still unrevealed. Zero means unbounded.
	MaxBufferAhead int
	// FailureMessage replaces the reply when the generation service fails.
	FailureMessage string
	// Model and SystemPrompt are forwarded to the Generator unchanged.
	Model        string
	SystemPrompt string
}

// DefaultConfig returns the default playback configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval:   DefaultTickInterval,
		ChunkSize:      DefaultChunkSize,
		IdleTimeout:    DefaultIdleTimeout,
		FailureMessage: DefaultFailureMessage,
	}
}
