// Package ollama implements [reveal.Generator] for a local Ollama server
// using the github.com/ollama/ollama/api client.
//
// The api client delivers a reply through a callback. Stream runs the call on
// its own goroutine and hands each piece of content to Next over an
// unbuffered channel, so the callback blocks until the reader asks for more.
package ollama

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/fwojciec/reveal"
	"github.com/ollama/ollama/api"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "llama3.2"
)

// Interface compliance check.
var _ reveal.Generator = (*Client)(nil)

// Client implements [reveal.Generator] for the Ollama chat API.
type Client struct {
	client *api.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model used when the request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a Client for the Ollama server at host. An empty host means
// the default local server.
func New(host string, opts ...Option) (*Client, error) {
	if host == "" {
		host = defaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", host, err)
	}
	c := &Client{
		client: api.NewClient(u, &http.Client{}),
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream starts a streaming chat request.
func (c *Client) Stream(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	streaming := true
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: ConvertMessages(req),
		Stream:   &streaming,
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &stream{
		ctx:       ctx,
		cancel:    cancel,
		fragments: make(chan string),
		done:      make(chan struct{}),
	}
	go s.run(c.client, chatReq)
	return s, nil
}

// ConvertMessages builds the chat messages for req, system prompt first.
// Exported for testing.
func ConvertMessages(req reveal.Request) []api.Message {
	turns := req.Turns()
	msgs := make([]api.Message, 0, len(turns)+1)
	if system := req.System(); system != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: system})
	}
	for _, m := range turns {
		msgs = append(msgs, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}

type stream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	fragments chan string
	done      chan struct{}
	err       error // written before done is closed
	closed    bool
}

func (s *stream) run(client *api.Client, req *api.ChatRequest) {
	defer close(s.done)
	s.err = client.Chat(s.ctx, req, func(res api.ChatResponse) error {
		if res.Message.Content == "" {
			return nil
		}
		select {
		case s.fragments <- res.Message.Content:
			return nil
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	})
}

func (s *stream) Next() (string, error) {
	if s.closed {
		return "", fmt.Errorf("ollama: %w", reveal.ErrStreamClosed)
	}
	select {
	case f := <-s.fragments:
		return f, nil
	case <-s.done:
	}
	switch {
	case s.err == nil:
		return "", io.EOF
	case s.ctx.Err() != nil:
		return "", s.ctx.Err()
	default:
		return "", fmt.Errorf("ollama: %w", s.err)
	}
}

// Close cancels the request and waits for the call to return.
func (s *stream) Close() error {
	s.closed = true
	s.cancel()
	<-s.done
	return nil
}
