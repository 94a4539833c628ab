package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fwojciec/reveal"
	"gopkg.in/yaml.v3"
)

// options holds the resolved command-line settings.
type options struct {
	provider       string
	model          string
	apiKey         string
	systemPrompt   string
	failureMessage string
	script         string
	ollamaHost     string
	configPath     string
	logFile        string
	addr           string
	debug          bool

	tick        time.Duration
	chunkSize   int
	idleTimeout time.Duration
	maxAhead    int
}

// fileConfig is the YAML config file. Unset keys keep the flag defaults.
type fileConfig struct {
	Provider       string         `yaml:"provider"`
	Model          string         `yaml:"model"`
	SystemPrompt   string         `yaml:"system_prompt"`
	FailureMessage string         `yaml:"failure_message"`
	Script         string         `yaml:"script"`
	OllamaHost     string         `yaml:"ollama_host"`
	LogFile        string         `yaml:"log_file"`
	Addr           string         `yaml:"addr"`
	Tick           time.Duration  `yaml:"tick"`
	ChunkSize      int            `yaml:"chunk_size"`
	IdleTimeout    *time.Duration `yaml:"idle_timeout"` // 0 disables
	MaxAhead       int            `yaml:"max_ahead"`
}

// loadFileConfig reads path. An empty path yields an empty config.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// merge overlays the file config onto o. Flags the user set explicitly win
// over the file; the file wins over flag defaults.
func (o options) merge(fc fileConfig, changed func(flag string) bool) options {
	setString := func(dst *string, flag, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setString(&o.provider, "provider", fc.Provider)
	setString(&o.model, "model", fc.Model)
	setString(&o.systemPrompt, "system-prompt", fc.SystemPrompt)
	setString(&o.failureMessage, "failure-message", fc.FailureMessage)
	setString(&o.script, "script", fc.Script)
	setString(&o.ollamaHost, "ollama-host", fc.OllamaHost)
	setString(&o.logFile, "log-file", fc.LogFile)
	setString(&o.addr, "addr", fc.Addr)

	if fc.Tick != 0 && !changed("tick") {
		o.tick = fc.Tick
	}
	if fc.ChunkSize != 0 && !changed("chunk-size") {
		o.chunkSize = fc.ChunkSize
	}
	if fc.IdleTimeout != nil && !changed("idle-timeout") {
		o.idleTimeout = *fc.IdleTimeout
	}
	if fc.MaxAhead != 0 && !changed("max-ahead") {
		o.maxAhead = fc.MaxAhead
	}
	return o
}

// playbackConfig builds and validates the playback configuration.
func (o options) playbackConfig() (reveal.Config, error) {
	cfg := reveal.DefaultConfig()
	cfg.TickInterval = o.tick
	cfg.ChunkSize = o.chunkSize
	cfg.IdleTimeout = o.idleTimeout
	cfg.MaxBufferAhead = o.maxAhead
	cfg.Model = o.model
	cfg.SystemPrompt = o.systemPrompt
	if o.failureMessage != "" {
		cfg.FailureMessage = o.failureMessage
	}
	if err := cfg.Validate(); err != nil {
		return reveal.Config{}, err
	}
	return cfg, nil
}
