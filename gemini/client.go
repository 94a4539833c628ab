package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/reveal"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ reveal.Generator = (*Client)(nil)

// Client implements [reveal.Generator] for the Google Gemini API.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID used when the request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int32) Option {
	return func(c *Client) { c.maxTokens = n }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client:    gc,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [reveal.FragmentStream] of reply text.
func (c *Client) Stream(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertMessages(req.Turns())
	config := BuildConfig(req, c.maxTokens)

	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return newStream(ctx, seq), nil
}

// BuildConfig returns the generation config for req.
// Exported for testing.
func BuildConfig(req reveal.Request, maxTokens int32) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	}
	if system := req.System(); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return config
}

// ConvertMessages converts turns to genai Contents.
// Exported for testing.
func ConvertMessages(turns []reveal.ChatMessage) []*genai.Content {
	result := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := "user"
		if m.Role == reveal.RoleAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return result
}
