package playback

import (
	"context"
	"sync"

	"github.com/fwojciec/reveal"
)

// Store is the ordered conversation observed by the UI. Every mutation is
// published to subscribers as a reveal.Event in mutation order.
type Store struct {
	mu       sync.Mutex
	messages []reveal.ChatMessage
	index    map[string]int
	subs     map[*mailbox]struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
		subs:  make(map[*mailbox]struct{}),
	}
}

// Append adds msg to the end of the conversation.
func (s *Store) Append(msg reveal.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	s.publishLocked(reveal.EventMessageAppended{Message: msg})
}

// SetContent replaces the content of the message with the given id. It
// returns false, and does nothing, when no such message exists. Writing the
// content a message already has publishes nothing.
func (s *Store) SetContent(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	if s.messages[i].Content == content {
		return true
	}
	s.messages[i].Content = content
	s.publishLocked(reveal.EventMessageUpdated{ID: id, Content: content})
	return true
}

// Messages returns a copy of the conversation.
func (s *Store) Messages() []reveal.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Message returns the message with the given id.
func (s *Store) Message(id string) (reveal.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return reveal.ChatMessage{}, false
	}
	return s.messages[i], true
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Reset removes every message.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.index = make(map[string]int)
	s.publishLocked(reveal.EventConversationCleared{})
}

// Subscribe returns the current conversation and a channel of every event
// published after it. The snapshot and the subscription are taken atomically.
// The channel is closed when ctx is done.
//
// Publishing never blocks: each subscriber has its own unbounded queue, so a
// slow reader delays only itself.
func (s *Store) Subscribe(ctx context.Context) ([]reveal.ChatMessage, <-chan reveal.Event) {
	m := &mailbox{
		ready: make(chan struct{}, 1),
		out:   make(chan reveal.Event),
	}
	s.mu.Lock()
	s.subs[m] = struct{}{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	go func() {
		defer s.unsubscribe(m)
		m.run(ctx)
	}()
	return snapshot, m.out
}

// publish emits a session signal that is not tied to a message mutation.
func (s *Store) publish(e reveal.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(e)
}

func (s *Store) publishLocked(e reveal.Event) {
	for m := range s.subs {
		m.push(e)
	}
}

func (s *Store) snapshotLocked() []reveal.ChatMessage {
	out := make([]reveal.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) unsubscribe(m *mailbox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, m)
}

// mailbox is an unbounded FIFO between the publisher and one subscriber.
type mailbox struct {
	mu    sync.Mutex
	queue []reveal.Event
	ready chan struct{}
	out   chan reveal.Event
}

func (m *mailbox) push(e reveal.Event) {
	m.mu.Lock()
	m.queue = append(m.queue, e)
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox) run(ctx context.Context) {
	defer close(m.out)
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		for _, e := range batch {
			select {
			case m.out <- e:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-m.ready:
		case <-ctx.Done():
			return
		}
	}
}
