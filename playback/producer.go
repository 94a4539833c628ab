package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/reveal"
)

// Producer pulls fragments from a Generator into a Buffer. It never touches
// the Store.
type Producer struct {
	gen         reveal.Generator
	buf         *Buffer
	idleTimeout time.Duration
	maxAhead    int
}

// NewProducer creates a Producer writing to buf. IdleTimeout and
// MaxBufferAhead are taken from cfg.
func NewProducer(gen reveal.Generator, buf *Buffer, cfg reveal.Config) *Producer {
	return &Producer{
		gen:         gen,
		buf:         buf,
		idleTimeout: cfg.IdleTimeout,
		maxAhead:    cfg.MaxBufferAhead,
	}
}

// Run streams the reply to req into the buffer. It returns nil when the
// stream ends normally, ctx.Err() when ctx was cancelled, and the stream error
// otherwise. A stream that stays silent longer than the idle timeout fails
// with an error wrapping reveal.ErrIdleTimeout.
func (p *Producer) Run(ctx context.Context, req reveal.Request) error {
	streamCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var idle *time.Timer
	if p.idleTimeout > 0 {
		idle = time.AfterFunc(p.idleTimeout, func() { cancel(reveal.ErrIdleTimeout) })
		defer idle.Stop()
	}

	stream, err := p.gen.Stream(streamCtx, req)
	if err != nil {
		return p.classify(ctx, streamCtx, err)
	}
	defer stream.Close()

	for {
		if p.maxAhead > 0 {
			// Waiting on the reader is not the service being idle.
			if idle != nil {
				idle.Stop()
			}
			if err := p.waitForRoom(streamCtx); err != nil {
				return p.classify(ctx, streamCtx, err)
			}
			if idle != nil {
				idle.Reset(p.idleTimeout)
			}
		}

		fragment, err := stream.Next()
		if streamCtx.Err() != nil {
			return p.classify(ctx, streamCtx, streamCtx.Err())
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return p.classify(ctx, streamCtx, err)
		}
		p.buf.Append(fragment)
		if idle != nil {
			idle.Reset(p.idleTimeout)
		}
	}
}

// waitForRoom blocks until fewer than maxAhead characters are unrevealed.
func (p *Producer) waitForRoom(ctx context.Context) error {
	for {
		changed := p.buf.Changed()
		if p.buf.Ahead() < p.maxAhead {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// classify separates cancellation by the caller from failures. An idle
// timeout cancels only the stream context, so it is reported as a failure.
func (p *Producer) classify(parent, streamCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(context.Cause(streamCtx), reveal.ErrIdleTimeout) {
		return fmt.Errorf("%w (%s)", reveal.ErrIdleTimeout, p.idleTimeout)
	}
	return err
}
