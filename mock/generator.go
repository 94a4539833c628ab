package mock

import (
	"context"

	"github.com/fwojciec/reveal"
)

// Interface compliance check.
var _ reveal.Generator = (*Generator)(nil)

// Generator is a test double for reveal.Generator.
// Set StreamFn before calling Stream.
type Generator struct {
	StreamFn func(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error)
}

// Stream delegates to StreamFn.
func (g *Generator) Stream(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error) {
	return g.StreamFn(ctx, req)
}
