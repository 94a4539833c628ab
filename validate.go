package reveal

import "fmt"

// Validate checks universal constraints on Config.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s: %w", c.TickInterval, ErrValidation)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d: %w", c.ChunkSize, ErrValidation)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must be non-negative, got %s: %w", c.IdleTimeout, ErrValidation)
	}
	if c.MaxBufferAhead < 0 {
		return fmt.Errorf("max buffer ahead must be non-negative, got %d: %w", c.MaxBufferAhead, ErrValidation)
	}
	if c.MaxBufferAhead > 0 && c.MaxBufferAhead < c.ChunkSize {
		return fmt.Errorf("max buffer ahead (%d) must be at least the chunk size (%d): %w", c.MaxBufferAhead, c.ChunkSize, ErrValidation)
	}
	if c.FailureMessage == "" {
		return fmt.Errorf("failure message must not be empty: %w", ErrValidation)
	}
	return nil
}
