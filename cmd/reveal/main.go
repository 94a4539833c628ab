// Command reveal plays streamed model replies back at a steady pace, either
// in a terminal UI or over HTTP with Server-Sent Events.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... reveal chat [flags]
//	GEMINI_API_KEY=gk-...    reveal serve --addr :8080 [flags]
//	reveal chat --provider script --script "msg:Hello ,msg:world"
//
// Run "reveal --help" for the full flag list.
package main

import (
	"fmt"
	"os"
)

func main() {
	// Env vars are read here and passed down as values.
	e := env{
		anthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		geminiKey:    os.Getenv("GEMINI_API_KEY"),
		openaiKey:    os.Getenv("OPENAI_API_KEY"),
		ollamaHost:   os.Getenv("OLLAMA_HOST"),
	}
	if err := newRootCmd(e).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reveal: %v\n", err)
		os.Exit(1)
	}
}
