package gemini

import (
	"context"
	"iter"

	"github.com/fwojciec/reveal"
	"google.golang.org/genai"
)

// NewStreamFromIter wraps a response iterator, bypassing the network client.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) reveal.FragmentStream {
	return newStream(ctx, seq)
}
