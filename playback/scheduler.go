package playback

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/reveal"
)

// errSessionEnded stops the scheduler once its session has left the active
// states.
var errSessionEnded = errors.New("session ended")

// RevealFunc reveals up to n more characters and returns how many buffered
// characters are still unrevealed. It returns ok == false once the session can
// no longer reveal anything.
type RevealFunc func(n int) (remaining int, ok bool)

// Scheduler reveals buffered text at a fixed cadence: on every tick at most
// chunkSize characters are revealed.
type Scheduler struct {
	interval  time.Duration
	chunkSize int
	ticks     <-chan time.Time // when set, replaces the ticker
}

// NewScheduler creates a Scheduler using TickInterval and ChunkSize from cfg.
func NewScheduler(cfg reveal.Config) *Scheduler {
	return &Scheduler{interval: cfg.TickInterval, chunkSize: cfg.ChunkSize}
}

// Run ticks until producerDone is closed and every buffered character has
// been revealed, in which case it returns nil. It returns ctx.Err() on
// cancellation.
func (s *Scheduler) Run(ctx context.Context, step RevealFunc, producerDone <-chan struct{}) error {
	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	drained := false
	for {
		n := s.chunkSize
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-producerDone:
			// Nothing more will arrive. Check without revealing: if the reveal
			// already caught up there is no reason to wait for another tick.
			producerDone = nil
			drained = true
			n = 0
		case <-ticks:
		}

		remaining, ok := step(n)
		if !ok {
			return errSessionEnded
		}
		if drained && remaining == 0 {
			return nil
		}
	}
}
