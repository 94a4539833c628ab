// Package openai implements [reveal.Generator] for OpenAI-compatible chat
// completion APIs using github.com/sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/reveal"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = goopenai.GPT4oMini

// Interface compliance check.
var _ reveal.Generator = (*Client)(nil)

// Client implements [reveal.Generator] for the OpenAI chat completion API.
type Client struct {
	client *goopenai.Client
	model  string
}

// Option configures a [Client].
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
	model   string
}

// WithBaseURL points the client at an OpenAI-compatible endpoint, e.g.
// "http://localhost:8080/v1". Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithModel sets the model ID used when the request names none.
func WithModel(model string) Option {
	return func(o *clientOptions) { o.model = model }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	o := clientOptions{model: defaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		model:  o.model,
	}
}

// Stream starts a streaming chat completion and returns a
// [reveal.FragmentStream] of content deltas.
func (c *Client) Stream(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	s, err := c.client.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: ConvertMessages(req),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &stream{ctx: ctx, s: s}, nil
}

// ConvertMessages builds the chat messages for req, system prompt first.
// Exported for testing.
func ConvertMessages(req reveal.Request) []goopenai.ChatCompletionMessage {
	turns := req.Turns()
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(turns)+1)
	if system := req.System(); system != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range turns {
		role := goopenai.ChatMessageRoleUser
		if m.Role == reveal.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

// stream implements [reveal.FragmentStream] over a chat completion stream.
type stream struct {
	ctx    context.Context
	s      *goopenai.ChatCompletionStream
	err    error
	closed bool
}

func (s *stream) Next() (string, error) {
	if s.closed {
		return "", fmt.Errorf("openai: %w", reveal.ErrStreamClosed)
	}
	if s.err != nil {
		return "", s.err
	}
	for {
		resp, err := s.s.Recv()
		if errors.Is(err, io.EOF) {
			s.err = io.EOF
			return "", io.EOF
		}
		if err != nil {
			if s.ctx.Err() != nil {
				s.err = s.ctx.Err()
			} else {
				s.err = fmt.Errorf("openai: %w", err)
			}
			return "", s.err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}
}

func (s *stream) Close() error {
	if !s.closed {
		s.closed = true
		s.s.Close()
	}
	return nil
}
