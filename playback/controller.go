package playback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/reveal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller owns a conversation and at most one active session. It is the
// only entry point the UI needs: Start, Stop and Clear mutate, the Store
// reports.
type Controller struct {
	gen    reveal.Generator
	store  *Store
	cfg    reveal.Config
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
	ticks  <-chan time.Time

	mu      sync.Mutex
	session *Session
	live    map[*Session]struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig sets the playback configuration. Defaults to reveal.DefaultConfig.
func WithConfig(cfg reveal.Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithStore makes the controller write to an existing store.
func WithStore(store *Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithIDGenerator replaces UUID message IDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// New creates a Controller that requests replies from gen.
func New(gen reveal.Generator, opts ...Option) (*Controller, error) {
	c := &Controller{
		gen:    gen,
		cfg:    reveal.DefaultConfig(),
		logger: zap.NewNop(),
		newID:  uuid.NewString,
		now:    time.Now,
		live:   make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	if c.store == nil {
		c.store = NewStore()
	}
	return c, nil
}

// Store returns the conversation store.
func (c *Controller) Store() *Store { return c.store }

// StartOption configures a single Start call.
type StartOption func(*reveal.Request)

// WithTransaction attaches opaque caller context to the request.
func WithTransaction(text string) StartOption {
	return func(req *reveal.Request) {
		req.Transaction = text
	}
}

// Start appends the user prompt and an empty assistant placeholder, then
// starts playing the reply into the placeholder. It returns the placeholder
// ID. Start fails with reveal.ErrSessionActive while another session is
// active and with reveal.ErrEmptyPrompt for a blank prompt.
func (c *Controller) Start(prompt string, opts ...StartOption) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", reveal.ErrEmptyPrompt
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.State().Active() {
		return "", reveal.ErrSessionActive
	}

	req := reveal.Request{
		Prompt:       prompt,
		History:      c.store.Messages(),
		Model:        c.cfg.Model,
		SystemPrompt: c.cfg.SystemPrompt,
	}
	for _, opt := range opts {
		opt(&req)
	}

	now := c.now()
	c.store.Append(reveal.ChatMessage{ID: c.newID(), Role: reveal.RoleUser, Content: prompt, Timestamp: now})
	placeholder := reveal.ChatMessage{ID: c.newID(), Role: reveal.RoleAssistant, Timestamp: now}
	c.store.Append(placeholder)

	sess := newSession(placeholder.ID, c.gen, c.store, c.cfg, c.logger)
	sess.scheduler.ticks = c.ticks
	sess.begin()
	c.session = sess
	c.live[sess] = struct{}{}
	c.store.publish(reveal.EventSessionStarted{MessageID: placeholder.ID})
	c.logger.Info("session started",
		zap.String("message_id", placeholder.ID),
		zap.Int("history", len(req.History)),
	)

	go func() {
		sess.run(req)
		c.mu.Lock()
		delete(c.live, sess)
		c.mu.Unlock()
	}()
	return placeholder.ID, nil
}

// Stop stops the active session, keeping what was revealed. It is a no-op
// when no session is active.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Stop()
	}
}

// Clear aborts any active session without keeping its partial reply and
// empties the conversation.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.abort()
		c.session = nil
	}
	c.store.Reset()
	c.logger.Info("conversation cleared")
}

// Active reports whether a session is streaming or draining.
func (c *Controller) Active() bool {
	return c.State().Active()
}

// State returns the state of the latest session, or reveal.StateIdle.
func (c *Controller) State() reveal.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return reveal.StateIdle
	}
	return c.session.State()
}

// StreamingID returns the message ID of the active session, or "".
func (c *Controller) StreamingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || !c.session.State().Active() {
		return ""
	}
	return c.session.MessageID()
}

// Session returns the latest session, or nil after Clear or before the first
// Start.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Wait blocks until every session has fully ended or ctx is done. A session
// has fully ended once it is no longer active and its producer and scheduler
// goroutines have exited, including sessions already stopped or cleared.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		var next *Session
		for s := range c.live {
			next = s
			break
		}
		c.mu.Unlock()
		if next == nil {
			return nil
		}
		select {
		case <-next.Done():
			// The run goroutine removes the session right after Done closes.
			c.mu.Lock()
			delete(c.live, next)
			c.mu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close aborts the active session and waits for its goroutines to exit.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.session != nil {
		c.session.abort()
	}
	c.mu.Unlock()
	return c.Wait(context.Background())
}
