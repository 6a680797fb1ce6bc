// Package cascade recomputes dependent field values after a field edit.
package cascade

import (
	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/internal/safe"
	"github.com/goliatone/go-formview/pkg/draft"
	"github.com/goliatone/go-formview/pkg/model"
)

// Option customises an Engine.
type Option func(*Engine)

// WithLogger routes derivation failures to the supplied logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine applies single-pass dependency cascades over a fixed field list.
// Dependencies are resolved in field declaration order; cyclic graphs are a
// configuration error and are not iterated to a fixed point.
type Engine struct {
	fields []model.Field
	log    logr.Logger
}

// New builds an engine for the fields declared by cfg.
func New(cfg model.FormConfig, options ...Option) *Engine {
	e := &Engine{log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	for _, field := range cfg.Fields() {
		if len(field.DependsOn) > 0 {
			e.fields = append(e.fields, field)
		}
	}
	return e
}

// Apply writes newValue at changedKey and recomputes, in one pass over the
// declared fields, every field that depends on a key written earlier in the
// pass: first the fields depending on changedKey, then fields depending on
// those, and so on down the declaration order. Each derivation sees the draft
// as updated so far. A failing derivation skips only its own write. The input
// draft is never mutated; when changedKey already holds newValue the input is
// returned as-is.
func (e *Engine) Apply(changedKey string, newValue any, current model.Draft, ext model.ExternalContext) model.Draft {
	updated, changed := draft.Merge(current, changedKey, newValue)
	if !changed {
		return current
	}

	written := []string{changedKey}
	for _, field := range e.fields {
		wrote := false
		for _, source := range written {
			derive, ok := field.DependsOn[source]
			if !ok || derive == nil {
				continue
			}
			input := model.DerivationInput{
				NewValue: updated[source],
				Draft:    updated,
				External: ext,
			}
			res := safe.Call(func() (any, error) {
				return derive(input)
			})
			if !res.OK() {
				e.log.Error(res.Err, "field dependency failed", "field", field.Key, "dependsOn", source)
				continue
			}
			updated[field.Key] = res.Value
			wrote = true
		}
		if wrote {
			written = append(written, field.Key)
		}
	}

	return updated
}
