package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/reveal"
	"github.com/fwojciec/reveal/anthropic"
	"github.com/fwojciec/reveal/gemini"
	"github.com/fwojciec/reveal/ollama"
	"github.com/fwojciec/reveal/openai"
	"github.com/fwojciec/reveal/script"
)

// env holds the environment values the command reads in main.
type env struct {
	anthropicKey string
	geminiKey    string
	openaiKey    string
	ollamaHost   string
}

// resolveProvider selects and constructs the generator. All env var values
// are passed in through e; env is only read in main().
func resolveProvider(ctx context.Context, providerFlag, apiKeyFlag, scriptText, ollamaHost string, e env) (reveal.Generator, error) {
	provider := providerFlag

	// Auto-detect from env vars if no flag.
	if provider == "" {
		var found []string
		if e.anthropicKey != "" {
			found = append(found, "anthropic")
		}
		if e.geminiKey != "" {
			found = append(found, "gemini")
		}
		if e.openaiKey != "" {
			found = append(found, "openai")
		}
		switch len(found) {
		case 0:
			return nil, fmt.Errorf("no API key found: set ANTHROPIC_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY (or use --provider)")
		case 1:
			provider = found[0]
		default:
			return nil, fmt.Errorf("multiple API keys found (%s): use --provider to select", strings.Join(found, ", "))
		}
	}

	// Resolve API key: explicit flag overrides env var.
	key := apiKeyFlag
	switch provider {
	case "anthropic":
		if key == "" {
			key = e.anthropicKey
		}
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use --api-key flag or environment variable)")
		}
		return anthropic.New(key), nil
	case "gemini":
		if key == "" {
			key = e.geminiKey
		}
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use --api-key flag or environment variable)")
		}
		client, err := gemini.New(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	case "openai":
		if key == "" {
			key = e.openaiKey
		}
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set (use --api-key flag or environment variable)")
		}
		return openai.New(key), nil
	case "ollama":
		host := ollamaHost
		if host == "" {
			host = e.ollamaHost
		}
		return ollama.New(host)
	case "script":
		if scriptText == "" {
			scriptText = script.DefaultScript
		}
		return script.New(scriptText)
	default:
		return nil, fmt.Errorf("unknown provider %q: must be one of anthropic, gemini, openai, ollama, script", provider)
	}
}
