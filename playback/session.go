package playback

import (
	"context"
	"sync"

	"github.com/fwojciec/reveal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session plays back one assistant reply into its placeholder message.
//
// Every transition out of Streaming or Draining is a check-and-set under mu,
// and the reveal step writes to the store under the same lock. Whichever of
// stop, failure or completion gets the lock first decides the final content;
// the others become no-ops.
type Session struct {
	messageID      string
	store          *Store
	buf            *Buffer
	producer       *Producer
	scheduler      *Scheduler
	failureMessage string
	logger         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state reveal.SessionState
	err   error
}

func newSession(messageID string, gen reveal.Generator, store *Store, cfg reveal.Config, logger *zap.Logger) *Session {
	buf := NewBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		messageID:      messageID,
		store:          store,
		buf:            buf,
		producer:       NewProducer(gen, buf, cfg),
		scheduler:      NewScheduler(cfg),
		failureMessage: cfg.FailureMessage,
		logger:         logger.With(zap.String("message_id", messageID)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		state:          reveal.StateIdle,
	}
}

// MessageID returns the ID of the message this session writes to.
func (s *Session) MessageID() string { return s.messageID }

// State returns the current state.
func (s *Session) State() reveal.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure cause of a Failed session, nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the producer and the scheduler have both exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Stop ends an active session, keeping exactly the text revealed so far.
// It reports whether this call stopped the session.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return false
	}
	s.finalizeLocked(reveal.StateStopped, s.buf.Revealed(), nil)
	return true
}

// abort ends an active session without writing to the store.
func (s *Session) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return
	}
	s.state = reveal.StateStopped
	s.buf.Reset()
	s.cancel()
	s.store.publish(reveal.EventSessionEnded{MessageID: s.messageID, State: s.state})
	s.logger.Info("session aborted")
}

// begin moves the session to Streaming. It must be called before run so
// the session reports active as soon as it exists.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reveal.StateStreaming
}

// run executes the producer and the scheduler and blocks until both exit.
func (s *Session) run(req reveal.Request) {
	defer close(s.done)
	defer s.cancel()

	g, ctx := errgroup.WithContext(s.ctx)
	producerDone := make(chan struct{})

	g.Go(func() error {
		defer close(producerDone)
		err := s.producer.Run(ctx, req)
		if err != nil {
			// Cancellation by stop, abort or a sibling is not a failure.
			if ctx.Err() == nil {
				s.fail(err)
			}
			return err
		}
		s.drain()
		return nil
	})
	g.Go(func() error {
		if err := s.scheduler.Run(ctx, s.reveal, producerDone); err != nil {
			return err
		}
		s.complete()
		return nil
	})

	_ = g.Wait()
}

// reveal is the scheduler step: advance the cursor and publish the prefix.
func (s *Session) reveal(n int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return 0, false
	}
	if text, advanced := s.buf.Reveal(n); advanced {
		s.store.SetContent(s.messageID, text)
	}
	return s.buf.Ahead(), true
}

func (s *Session) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == reveal.StateStreaming {
		s.state = reveal.StateDraining
		s.logger.Debug("producer finished", zap.Int("chars", s.buf.Len()))
	}
}

func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return
	}
	s.finalizeLocked(reveal.StateCompleted, s.buf.String(), nil)
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return
	}
	s.finalizeLocked(reveal.StateFailed, s.failureMessage, err)
}

func (s *Session) finalizeLocked(state reveal.SessionState, content string, err error) {
	s.state = state
	s.err = err
	s.store.SetContent(s.messageID, content)
	s.buf.Reset()
	s.cancel()
	s.store.publish(reveal.EventSessionEnded{MessageID: s.messageID, State: state})
	if err != nil {
		s.logger.Warn("session ended", zap.Stringer("state", state), zap.Error(err))
		return
	}
	s.logger.Info("session ended", zap.Stringer("state", state), zap.Int("chars", len(content)))
}
