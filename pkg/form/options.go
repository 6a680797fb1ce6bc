package form

import (
	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/validation"
)

// Option customises a Session.
type Option func(*Session)

// WithResolver sets the configuration source. Required before Open.
func WithResolver(resolver config.Resolver) Option {
	return func(s *Session) {
		s.resolver = resolver
	}
}

// WithValidator sets the validator run before actions that need validation.
// Defaults to the rule validator.
func WithValidator(validator validation.Validator) Option {
	return func(s *Session) {
		s.validator = validator
	}
}

// WithPermissions sets what the user may do on the form's model.
func WithPermissions(perms action.Permissions) Option {
	return func(s *Session) {
		s.permissions = perms
	}
}

// WithExternalContext sets the read-only context handed to predicates and
// derivations.
func WithExternalContext(ext model.ExternalContext) Option {
	return func(s *Session) {
		s.ext = ext
	}
}

// WithDefaultValue sets the record the session edits.
func WithDefaultValue(record model.Draft) Option {
	return func(s *Session) {
		s.defaultValue = record
	}
}

// WithCreationDefault sets the draft used when creating a new record.
func WithCreationDefault(record model.Draft) Option {
	return func(s *Session) {
		s.creationDefault = record
	}
}

// WithCustom marks the form as not backed by a record, so it is never a
// creation draft.
func WithCustom(custom bool) Option {
	return func(s *Session) {
		s.custom = custom
	}
}

// WithDefaultEditMode opens the form editable even when floating tools are on.
func WithDefaultEditMode(edit bool) Option {
	return func(s *Session) {
		s.defaultEditMode = edit
	}
}

// WithFloatingTools enables the floating toolbar. With it on and default edit
// mode off, sessions open readonly. Defaults to true.
func WithFloatingTools(enabled bool) Option {
	return func(s *Session) {
		s.floatingTools = enabled
	}
}

// WithActions appends actions to the ones declared by the configuration.
func WithActions(actions ...model.Action) Option {
	return func(s *Session) {
		s.extraActions = append(s.extraActions, actions...)
	}
}

// WithLogger routes session diagnostics to log.
func WithLogger(log logr.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithTranslator localises rendered views and action titles.
func WithTranslator(t render.Translator, locale string) Option {
	return func(s *Session) {
		s.translator = t
		s.locale = locale
	}
}
