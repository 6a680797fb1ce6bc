// Package action filters declared actions down to the executable set a
// session may offer: authorized by type, visible for the current draft, and
// resolvable into a display descriptor.
package action

import (
	"errors"
	"strings"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/internal/safe"
	"github.com/goliatone/go-formview/pkg/model"
)

// Permissions captures what the current user may do on the form's model.
type Permissions struct {
	CanCreate bool
	CanDelete bool
	Readonly  bool
}

// Authorized reports whether an action of the given type is allowed.
func (p Permissions) Authorized(t model.ActionType) bool {
	switch t {
	case model.ActionCreate:
		return p.CanCreate
	case model.ActionUpdate:
		return !p.Readonly
	case model.ActionDelete:
		return p.CanDelete
	default:
		return true
	}
}

// Executable pairs a resolved descriptor with the action it came from.
type Executable struct {
	Descriptor model.Descriptor
	Action     model.Action
}

// Key returns the action key.
func (e Executable) Key() string {
	return e.Descriptor.Key
}

// Translator resolves display titles. Missing translations fall back to the
// declared title.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger routes recovered failures to log.
func WithLogger(log logr.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithTranslator localises action titles.
func WithTranslator(t Translator, locale string) Option {
	return func(p *Pipeline) {
		p.translator = t
		p.locale = locale
	}
}

// Pipeline builds the executable action list for a draft.
type Pipeline struct {
	permissions Permissions
	log         logr.Logger
	translator  Translator
	locale      string
}

var (
	errMissingKey    = errors.New("action: key is required")
	errMissingEffect = errors.New("action: effect is required")
)

// New constructs a pipeline bound to the supplied permissions.
func New(permissions Permissions, options ...Option) *Pipeline {
	p := &Pipeline{permissions: permissions, log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Permissions returns the permissions the pipeline authorizes against.
func (p *Pipeline) Permissions() Permissions {
	return p.permissions
}

// Build filters declared into the executable list, preserving declaration
// order. Unauthorized actions are dropped silently; failing predicates and
// descriptor resolution are logged and never abort the pass.
func (p *Pipeline) Build(declared []model.Action, draft model.Draft, ext model.ExternalContext) []Executable {
	if len(declared) == 0 {
		return nil
	}

	out := make([]Executable, 0, len(declared))
	for _, act := range declared {
		if !p.permissions.Authorized(act.Type) {
			continue
		}

		if act.HideIf != nil {
			hideIf := act.HideIf
			res := safe.Call(func() (bool, error) { return hideIf(draft, ext) })
			if !res.OK() {
				p.log.Error(res.Err, "hideIf failed, hiding action", "action", act.Key)
				continue
			}
			if res.Value {
				continue
			}
		}

		current := act
		desc := safe.Call(func() (model.Descriptor, error) { return p.describe(current, draft, ext) })
		if !desc.OK() {
			p.log.Error(desc.Err, "action config resolution failed", "action", act.Key)
			continue
		}

		descriptor := desc.Value
		if act.Disabled != nil {
			disabled := act.Disabled
			res := safe.Call(func() (bool, error) { return disabled(draft, ext) })
			if !res.OK() {
				p.log.Error(res.Err, "disabled predicate failed, disabling action", "action", act.Key)
			}
			descriptor.Disabled = !res.OK() || res.Value
		}

		out = append(out, Executable{Descriptor: descriptor, Action: act})
	}
	return out
}

func (p *Pipeline) describe(act model.Action, draft model.Draft, ext model.ExternalContext) (model.Descriptor, error) {
	if strings.TrimSpace(act.Key) == "" {
		return model.Descriptor{}, errMissingKey
	}
	if act.Effect == nil {
		return model.Descriptor{}, errMissingEffect
	}

	var desc model.Descriptor
	if act.Describe != nil {
		resolved, err := act.Describe(act, draft, ext)
		if err != nil {
			return model.Descriptor{}, err
		}
		desc = resolved
	} else {
		desc = model.Descriptor{Title: act.Title, Icon: act.Icon, Color: act.Color}
	}

	desc.Key = act.Key
	desc.Type = act.Type
	desc.NeedValidation = act.NeedValidation
	desc.ReadonlyAfterAction = act.ReadonlyAfterAction
	desc.Title = p.title(desc.Title, act.Key)
	return desc, nil
}

func (p *Pipeline) title(title, key string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = key
	}
	if p.translator == nil {
		return title
	}
	translated, err := p.translator.Translate(p.locale, title)
	if err != nil || strings.TrimSpace(translated) == "" {
		return title
	}
	return translated
}
