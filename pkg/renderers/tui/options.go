package tui

import (
	"context"

	"github.com/go-logr/logr"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a key=value summary sorted by key.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the renderer applies to printed messages.
type Theme struct {
	PanelPrefix string
	InfoPrefix  string
	ErrorPrefix string
}

// FieldSink receives every answered field. A form session satisfies it, so
// cascades and readonly checks run as the user types.
type FieldSink interface {
	HandleFieldChange(key string, value any) (bool, error)
}

// ActionHandler runs the action the user picked after the field prompts.
type ActionHandler func(ctx context.Context, actionKey string) error

// SubmitTransformer mutates collected values before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithFieldSink forwards each answer to sink.
func WithFieldSink(sink FieldSink) Option {
	return func(r *Renderer) {
		r.sink = sink
	}
}

// WithActionHandler offers the view's enabled actions after the field
// prompts and calls fn with the chosen key.
func WithActionHandler(fn ActionHandler) Option {
	return func(r *Renderer) {
		r.onAction = fn
	}
}

// WithSubmitTransformer allows callers to mutate collected values prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithLogger routes renderer diagnostics to log.
func WithLogger(log logr.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}
