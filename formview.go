// Package formview is the top-level entry point: it re-exports the
// orchestrator so callers can open and render declarative forms with a single
// import.
package formview

import (
	"context"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/orchestrator"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// Option aliases orchestrator.Option.
type Option = orchestrator.Option

// Draft aliases model.Draft, the record a session edits.
type Draft = model.Draft

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// WithResolver forwards to orchestrator.WithResolver.
func WithResolver(resolver config.Resolver) Option {
	return orchestrator.WithResolver(resolver)
}

// GenerateHTML opens formKey against resolver with record as the stored
// value and renders it with the html renderer. Pass a nil record to render a
// creation draft.
func GenerateHTML(ctx context.Context, resolver config.Resolver, formKey string, record Draft, options ...Option) ([]byte, error) {
	options = append([]Option{orchestrator.WithResolver(resolver)}, options...)
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		FormKey:  formKey,
		Record:   record,
		Renderer: "html",
	})
}
