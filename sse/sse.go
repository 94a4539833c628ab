// Package sse exposes a playback conversation over HTTP. Commands are plain
// POST endpoints; store events fan out to browsers as Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/fwojciec/reveal"
	revealjson "github.com/fwojciec/reveal/json"
	"github.com/fwojciec/reveal/playback"
	gosse "github.com/tmaxmax/go-sse"
	"go.uber.org/zap"
)

// Conversation is the part of playback.Controller the HTTP surface drives.
type Conversation interface {
	Start(prompt string, opts ...playback.StartOption) (string, error)
	Stop()
	Clear()
	Active() bool
	StreamingID() string
	Store() *playback.Store
}

var _ Conversation = (*playback.Controller)(nil)

// Server serves the conversation API. It implements http.Handler.
type Server struct {
	conv   Conversation
	events *gosse.Server
	logger *zap.Logger
	mux    *http.ServeMux

	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server for conv and starts forwarding its store events to
// connected event streams. Call Shutdown to stop forwarding.
func New(conv Conversation, opts ...Option) *Server {
	s := &Server{
		conv:   conv,
		events: &gosse.Server{},
		logger: zap.NewNop(),
		mux:    http.NewServeMux(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/clear", s.handleClear)
	s.mux.HandleFunc("/messages", s.handleMessages)
	s.mux.HandleFunc("/events", s.handleEvents)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	_, events := conv.Store().Subscribe(ctx)
	go s.forward(events)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Shutdown stops forwarding store events and closes every event stream,
// waiting for them until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancel()
		<-s.done
		e := &gosse.Message{Type: gosse.Type("close")}
		// The SSE format requires data on every event.
		e.AppendData("bye")
		_ = s.events.Publish(e)
		err = s.events.Shutdown(ctx)
	})
	return err
}

// forward publishes store events until the subscription closes.
func (s *Server) forward(events <-chan reveal.Event) {
	defer close(s.done)
	for e := range events {
		msg, err := newMessage(e)
		if err != nil {
			s.logger.Error("encode event", zap.Error(err))
			continue
		}
		if err := s.events.Publish(msg); err != nil {
			s.logger.Debug("publish event", zap.Error(err))
		}
	}
}

// newMessage converts a store event to a typed SSE message with a JSON
// payload.
func newMessage(e reveal.Event) (*gosse.Message, error) {
	name, data, err := revealjson.MarshalEvent(e)
	if err != nil {
		return nil, err
	}
	msg := &gosse.Message{Type: gosse.Type(name)}
	msg.AppendData(string(data))
	return msg, nil
}

// handleChat starts a reply to the posted prompt. The reply itself arrives
// on the event stream.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var opts []playback.StartOption
	if tx := r.FormValue("transaction"); tx != "" {
		opts = append(opts, playback.WithTransaction(tx))
	}
	id, err := s.conv.Start(r.FormValue("prompt"), opts...)
	switch {
	case errors.Is(err, reveal.ErrEmptyPrompt):
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	case errors.Is(err, reveal.ErrSessionActive):
		http.Error(w, "A reply is already playing", http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("start session", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, struct {
		MessageID string `json:"message_id"`
	}{MessageID: id})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.conv.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.conv.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleMessages returns the conversation snapshot. Clients fetch it once
// and then apply events from /events.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := revealjson.MarshalSnapshot(reveal.Snapshot{
		Messages:    s.conv.Store().Messages(),
		Active:      s.conv.Active(),
		StreamingID: s.conv.StreamingID(),
	})
	if err != nil {
		s.logger.Error("encode snapshot", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.events.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
