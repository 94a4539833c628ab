package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/reveal"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the reveal TUI. It never mutates the
// conversation itself: key presses call the Conversation, and the blocks are
// rebuilt from the store events that follow.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	conv   Conversation
	events <-chan reveal.Event
	styles Styles

	blocks []MessageBlock
	index  map[string]int // message ID -> position in blocks

	streamingID string
	lastState   reveal.SessionState
	err         error
	ready       bool
}

// New creates a TUI Model observing conv. The store subscription lives
// until ctx is done.
func New(ctx context.Context, conv Conversation, theme reveal.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	snapshot, events := conv.Store().Subscribe(ctx)
	m := Model{
		Input:  ti,
		conv:   conv,
		events: events,
		styles: NewStyles(theme),
		index:  make(map[string]int),
	}
	for _, msg := range snapshot {
		m = m.appendMessage(msg)
	}
	if id := conv.StreamingID(); id != "" {
		m = m.startStreaming(id)
	}
	return m
}

// Streaming reports whether a reply is being revealed.
func (m Model) Streaming() bool { return m.streamingID != "" }

// StreamingID returns the ID of the message being revealed, or "".
func (m Model) StreamingID() string { return m.streamingID }

// LastState returns how the most recent session ended.
func (m Model) LastState() reveal.SessionState { return m.lastState }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Blocks returns the rendered conversation blocks.
func (m Model) Blocks() []MessageBlock { return m.blocks }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StoreEventMsg:
		var cmd tea.Cmd
		m, cmd = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, tea.Batch(cmd, listenForEvent(m.events))

	case SubscriptionClosedMsg:
		m.events = nil
		return m, nil
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.Streaming() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Output area.
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")

	// Status line.
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	// Input area.
	b.WriteString(m.Input.View())

	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Streaming() || m.conv.Active() {
			m.conv.Stop()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyCtrlL:
		m.conv.Clear()
		m.err = nil
		return m, nil

	case tea.KeyEnter:
		if m.Streaming() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// When idle, pass keys to both input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.Streaming() {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// submitInput hands the prompt to the conversation. The user and assistant
// messages show up through the store events that Start publishes.
func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	if _, err := m.conv.Start(text); err != nil {
		m.err = err
		return m, nil
	}
	m.Input.SetValue("")
	m.err = nil
	return m, nil
}

// processEvent applies a store event to the block list.
func (m Model) processEvent(evt reveal.Event) (Model, tea.Cmd) {
	switch e := evt.(type) {
	case reveal.EventMessageAppended:
		m = m.appendMessage(e.Message)

	case reveal.EventMessageUpdated:
		if i, ok := m.index[e.ID]; ok {
			m.blocks[i], _ = m.blocks[i].Update(ContentMsg{Content: e.Content})
		}

	case reveal.EventSessionStarted:
		m = m.startStreaming(e.MessageID)

	case reveal.EventSessionEnded:
		if i, ok := m.index[e.MessageID]; ok {
			m.blocks[i], _ = m.blocks[i].Update(EndedMsg{State: e.State})
		}
		m.lastState = e.State
		if e.MessageID == m.streamingID {
			m.streamingID = ""
			return m, m.Input.Focus()
		}

	case reveal.EventConversationCleared:
		m.blocks = nil
		m.index = make(map[string]int)
		m.streamingID = ""
		m.lastState = reveal.StateIdle
		return m, m.Input.Focus()
	}
	return m, nil
}

func (m Model) appendMessage(msg reveal.ChatMessage) Model {
	var block MessageBlock
	switch msg.Role {
	case reveal.RoleUser:
		block = NewUserMessageBlock(msg.Content, m.styles)
	default:
		block = NewAssistantTextBlock(msg.Content, m.styles)
	}
	m.index[msg.ID] = len(m.blocks)
	m.blocks = append(m.blocks, block)
	return m
}

func (m Model) startStreaming(id string) Model {
	m.streamingID = id
	if i, ok := m.index[id]; ok {
		if b, ok := m.blocks[i].(*AssistantTextBlock); ok {
			b.SetStreaming(true)
		}
	}
	m.Input.Blur()
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var text string
	style := m.styles.Muted
	switch {
	case m.err != nil:
		text = fmt.Sprintf("Error: %v", m.err)
		style = m.styles.Error
	case m.Streaming():
		text = "Revealing... Ctrl+C to stop"
	case m.lastState == reveal.StateFailed:
		text = "Reply failed. Enter to send, Ctrl+L to clear, Ctrl+C to quit"
	default:
		text = "Enter to send, Ctrl+L to clear, Ctrl+C to quit"
	}
	if m.Viewport.Width > 0 {
		text = runewidth.Truncate(text, m.Viewport.Width, "…")
	}
	return style.Render(text)
}
