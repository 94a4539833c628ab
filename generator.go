package reveal

import "context"

// Generator is a strategy pattern interface for text generation services.
type Generator interface {
	Stream(ctx context.Context, req Request) (FragmentStream, error)
}
