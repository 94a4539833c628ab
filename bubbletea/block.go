package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/reveal"
)

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ContentMsg replaces the text of a message block.
type ContentMsg struct {
	Content string
}

// EndedMsg tells an assistant block that its session reached State.
type EndedMsg struct {
	State reveal.SessionState
}
