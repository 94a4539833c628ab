// Package bubbletea provides a Bubble Tea TUI that plays assistant replies
// back as they are revealed by a playback.Controller.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/reveal"
	"github.com/fwojciec/reveal/playback"
)

// Conversation is the part of playback.Controller the TUI drives.
type Conversation interface {
	Start(prompt string, opts ...playback.StartOption) (string, error)
	Stop()
	Clear()
	Active() bool
	StreamingID() string
	Store() *playback.Store
}

var _ Conversation = (*playback.Controller)(nil)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StoreEventMsg wraps a store event for delivery to the Bubble Tea model.
type StoreEventMsg struct {
	Event reveal.Event
}

// SubscriptionClosedMsg signals that the store subscription ended.
type SubscriptionClosedMsg struct{}

// listenForEvent waits for the next event from the subscription.
func listenForEvent(ch <-chan reveal.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return SubscriptionClosedMsg{}
		}
		return StoreEventMsg{Event: evt}
	}
}
