package render

import (
	"context"
)

// Renderer converts a View into a byte representation (HTML, terminal
// transcript, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View) ([]byte, error)
}
