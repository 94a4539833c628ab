package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/reveal"
	bt "github.com/fwojciec/reveal/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(o *options, e env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal UI",
		Long: `Opens the terminal UI. Enter sends a prompt, Ctrl+C stops the reply
being revealed (or quits when idle) and Ctrl+L clears the conversation.

Logs go to --log-file only, so they never draw over the UI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runChat(ctx, cmd, *o, e)
		},
	}
}

func runChat(ctx context.Context, cmd *cobra.Command, o options, e env) error {
	a, err := newApp(ctx, cmd, o, e, "")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := bt.New(ctx, a.ctrl, reveal.DefaultTheme())
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
