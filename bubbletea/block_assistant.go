package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/reveal"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// cursorGlyph trails the revealed text while the reply is still playing.
const cursorGlyph = "▌"

// AssistantTextBlock renders the revealed part of an assistant reply. The
// block holds the full content as last reported by the store; it never
// appends on its own, so a replaced message (failure, stop) renders as-is.
type AssistantTextBlock struct {
	content   string
	streaming bool
	state     reveal.SessionState
	styles    Styles
}

// NewAssistantTextBlock creates a block for an assistant reply.
func NewAssistantTextBlock(content string, styles Styles) *AssistantTextBlock {
	return &AssistantTextBlock{content: content, styles: styles}
}

// Content returns the text currently shown.
func (b *AssistantTextBlock) Content() string { return b.content }

// Streaming reports whether the reply is still being revealed.
func (b *AssistantTextBlock) Streaming() bool { return b.streaming }

// SetStreaming toggles the trailing cursor.
func (b *AssistantTextBlock) SetStreaming(streaming bool) {
	b.streaming = streaming
}

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ContentMsg:
		b.content = msg.Content
	case EndedMsg:
		b.streaming = false
		b.state = msg.State
	}
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	switch {
	case b.state == reveal.StateFailed:
		return wrap.Render(b.styles.Error.Render(b.content))
	case b.streaming:
		// An empty placeholder shows only the cursor so the user sees the
		// reply has started before the first chunk arrives.
		return wrap.Render(b.content + b.styles.Cursor.Render(cursorGlyph))
	}

	var sb strings.Builder
	sb.WriteString(b.content)
	if b.state == reveal.StateStopped {
		if b.content != "" {
			sb.WriteString(" ")
		}
		sb.WriteString(b.styles.Muted.Render("[stopped]"))
	}
	return wrap.Render(sb.String())
}
