package template

import (
	"io"
)

// TemplateRenderer is the contract markup renderers depend on.
type TemplateRenderer interface {
	// RenderTemplate executes the named template with data and returns the
	// output, also copying it to every writer in out.
	RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error)
}
