package render

import (
	"context"

	"github.com/goliatone/go-formulate/pkg/model"
)

// Renderer converts a FormDefinition into a byte representation (HTML,
// plain text, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, def model.FormDefinition, options RenderOptions) ([]byte, error)
}
