package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/reveal"
	"github.com/fwojciec/reveal/playback"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newRootCmd builds the command tree. e carries the environment read in main.
func newRootCmd(e env) *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "reveal",
		Short: "Play streamed model replies back at a steady pace",
		Long: `reveal requests a reply from a generation service and reveals it at a
fixed cadence, whatever the pace at which the service actually streams it.

Use "reveal chat" for the terminal UI or "reveal serve" for the HTTP API
with Server-Sent Events.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&o.provider, "provider", "", "Provider: anthropic, gemini, openai, ollama, script (auto-detected from env vars if omitted)")
	f.StringVar(&o.model, "model", "", "Model ID (default: provider default)")
	f.StringVar(&o.apiKey, "api-key", "", "API key (overrides the provider's env var)")
	f.StringVar(&o.systemPrompt, "system-prompt", "", "System prompt sent with every request")
	f.StringVar(&o.failureMessage, "failure-message", "", "Reply shown when generation fails")
	f.StringVar(&o.script, "script", "", "Actions for the script provider")
	f.StringVar(&o.ollamaHost, "ollama-host", "", "Ollama server URL (default: OLLAMA_HOST or http://localhost:11434)")
	f.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&o.logFile, "log-file", "", "Write JSON logs to this file")
	f.BoolVar(&o.debug, "debug", false, "Log at debug level")
	f.DurationVar(&o.tick, "tick", reveal.DefaultTickInterval, "Reveal cadence")
	f.IntVar(&o.chunkSize, "chunk-size", reveal.DefaultChunkSize, "Maximum characters revealed per tick")
	f.DurationVar(&o.idleTimeout, "idle-timeout", reveal.DefaultIdleTimeout, "Fail a reply after this long without new text (0 disables)")
	f.IntVar(&o.maxAhead, "max-ahead", 0, "Pause reading the stream while this many characters wait to be revealed (0 means unbounded)")

	root.AddCommand(newChatCmd(o, e), newServeCmd(o, e))
	return root
}

// app is the wiring shared by the subcommands.
type app struct {
	ctrl   *playback.Controller
	logger *zap.Logger
	opts   options
}

// newApp resolves options against the config file and builds the
// controller. defaultLog is the log destination when --log-file is unset;
// an empty defaultLog disables logging.
func newApp(ctx context.Context, cmd *cobra.Command, o options, e env, defaultLog string) (*app, error) {
	fc, err := loadFileConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	o = o.merge(fc, cmd.Flags().Changed)

	cfg, err := o.playbackConfig()
	if err != nil {
		return nil, err
	}

	logPath := o.logFile
	if logPath == "" {
		logPath = defaultLog
	}
	logger, err := newLogger(logPath, o.debug)
	if err != nil {
		return nil, err
	}

	gen, err := resolveProvider(ctx, o.provider, o.apiKey, o.script, o.ollamaHost, e)
	if err != nil {
		return nil, err
	}

	ctrl, err := playback.New(gen,
		playback.WithConfig(cfg),
		playback.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("playback configured",
		zap.String("provider", o.provider),
		zap.Duration("tick", cfg.TickInterval),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
		zap.Int("max_ahead", cfg.MaxBufferAhead),
	)
	return &app{ctrl: ctrl, logger: logger, opts: o}, nil
}

// Close stops any playing reply and flushes the log.
func (a *app) Close() error {
	err := a.ctrl.Close()
	_ = a.logger.Sync()
	return err
}

// newLogger builds a production JSON logger writing to path. An empty path
// returns a no-op logger.
func newLogger(path string, debug bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
