package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/reveal/sse"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultAddr = ":8080"

func newServeCmd(o *options, e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation over HTTP and Server-Sent Events",
		Long: `Serves the conversation API:

  POST /chat      start a reply (form fields: prompt, transaction)
  POST /stop      stop the reply being revealed
  POST /clear     clear the conversation
  GET  /messages  conversation snapshot as JSON
  GET  /events    Server-Sent Events stream of conversation changes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, *o, e)
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", defaultAddr, "Listen address")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, o options, e env) error {
	a, err := newApp(ctx, cmd, o, e, "stderr")
	if err != nil {
		return err
	}
	defer a.Close()

	api := sse.New(a.ctrl, sse.WithLogger(a.logger))
	srv := &http.Server{
		Addr:              a.opts.addr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// Event streams never go idle on their own; closing them lets
	// srv.Shutdown finish.
	srv.RegisterOnShutdown(func() {
		if err := api.Shutdown(context.Background()); err != nil {
			a.logger.Error("failed to shut down event streams", zap.Error(err))
		}
	})

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("graceful shutdown failed", zap.Error(err))
			return srv.Close()
		}
		return nil
	}
}
