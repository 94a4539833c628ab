package bubbletea_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/reveal"
	bt "github.com/fwojciec/reveal/bubbletea"
	"github.com/fwojciec/reveal/playback"
	"github.com/stretchr/testify/require"
)

// conversation is a Conversation double. Start, Stop and Clear only record
// their calls; tests drive the model with StoreEventMsg values directly.
type conversation struct {
	store       *playback.Store
	StartFn     func(prompt string) (string, error)
	prompts     []string
	stops       int
	clears      int
	active      bool
	streamingID string
}

func newConversation() *conversation {
	return &conversation{store: playback.NewStore()}
}

func (c *conversation) Start(prompt string, _ ...playback.StartOption) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.StartFn != nil {
		return c.StartFn(prompt)
	}
	return "a1", nil
}

func (c *conversation) Stop() { c.stops++ }
func (c *conversation) Clear() { c.clears++ }
func (c *conversation) Active() bool { return c.active }
func (c *conversation) StreamingID() string { return c.streamingID }
func (c *conversation) Store() *playback.Store { return c.store }

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, conv bt.Conversation) bt.Model {
	t.Helper()
	return initModelWithSize(t, conv, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, conv bt.Conversation, width, height int) bt.Model {
	t.Helper()
	m := bt.New(t.Context(), conv, reveal.DefaultTheme())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// send applies store events in order.
func send(t *testing.T, m bt.Model, events ...reveal.Event) bt.Model {
	t.Helper()
	for _, e := range events {
		m = updateModel(t, m, bt.StoreEventMsg{Event: e})
	}
	return m
}

// startReply returns the events Start publishes for prompt.
func startReply(prompt string) []reveal.Event {
	return []reveal.Event{
		reveal.EventMessageAppended{Message: reveal.ChatMessage{ID: "u1", Role: reveal.RoleUser, Content: prompt}},
		reveal.EventMessageAppended{Message: reveal.ChatMessage{ID: "a1", Role: reveal.RoleAssistant}},
		reveal.EventSessionStarted{MessageID: "a1"},
	}
}
