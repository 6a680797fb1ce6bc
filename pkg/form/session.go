// Package form composes configuration, draft state, cascades, actions,
// validation and rendering into a single editing session.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/cascade"
	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/draft"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/validation"
)

var (
	// ErrNotReady reports an operation on a session that is closed or stopped
	// on a terminal state.
	ErrNotReady = errors.New("form: session not ready")
	// ErrActionNotFound reports an action that is not in the executable list.
	ErrActionNotFound = errors.New("form: action not found")
	// ErrActionDisabled reports an attempt to invoke a disabled action.
	ErrActionDisabled = errors.New("form: action disabled")
	// ErrStaleSession reports a result discarded because the session was
	// reopened, switched or closed while the action was pending.
	ErrStaleSession = errors.New("form: session changed while action was pending")
	// ErrReadonly reports a field change rejected by the readonly policy.
	ErrReadonly = errors.New("form: field is readonly")
	// ErrMissingCreateAccess reports a creation attempt without permission.
	ErrMissingCreateAccess = errors.New("form: missing create access")
)

// Outcome reports what an invocation did.
type Outcome struct {
	Action string            `json:"action"`
	Ran    bool              `json:"ran"`
	Errors validation.Errors `json:"errors,omitempty"`
}

// Session owns one form editing session. Methods are safe for concurrent
// use; action effects and validation run without holding the session lock.
type Session struct {
	mu sync.Mutex

	resolver        config.Resolver
	validator       validation.Validator
	permissions     action.Permissions
	ext             model.ExternalContext
	defaultValue    model.Draft
	creationDefault model.Draft
	custom          bool
	defaultEditMode bool
	floatingTools   bool
	extraActions    []model.Action
	log             logr.Logger
	translator      render.Translator
	locale          string

	token      string
	opened     bool
	formKey    string
	state      render.State
	cfg        model.FormConfig
	actions    []model.Action
	drafts     *draft.Manager
	cascade    *cascade.Engine
	pipeline   *action.Pipeline
	dispatcher *render.Dispatcher
	readonly   bool
	errors     validation.Errors
}

// New constructs a session. Call Open to load a form.
func New(options ...Option) *Session {
	s := &Session{
		validator:     validation.NewRuleValidator(),
		floatingTools: true,
		log:           logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.dispatcher = render.NewDispatcher(render.WithLogger(s.log))
	return s
}

// Open resolves formKey and starts a fresh session, discarding any pending
// action results. An unknown form or a creation draft without create access
// leaves the session on a terminal state without returning an error.
func (s *Session) Open(ctx context.Context, formKey string) error {
	if s.resolver == nil {
		return errors.New("form: resolver is required")
	}
	cfg, err := s.resolver.Resolve(ctx, formKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.opened = true
	s.formKey = formKey
	log := s.log.WithValues("form", formKey, "session", s.token)

	if err != nil {
		if errors.Is(err, config.ErrFormNotFound) {
			s.state = render.StateNotFound
			log.Info("form configuration not found")
			return nil
		}
		s.opened = false
		return fmt.Errorf("form: resolve %q: %w", formKey, err)
	}

	s.cfg = cfg
	s.actions = append(append([]model.Action(nil), cfg.Actions...), s.extraActions...)
	s.drafts = draft.New(draft.Clone(s.defaultValue), draft.Clone(s.creationDefault), draft.WithCreationCheck(s.creationCheck))
	s.cascade = cascade.New(cfg, cascade.WithLogger(log))
	s.pipeline = action.New(s.permissions, action.WithLogger(log), action.WithTranslator(s.translator, s.locale))
	s.readonly = s.floatingTools && !s.defaultEditMode

	if s.drafts.IsCreation() && !s.permissions.CanCreate {
		s.state = render.StateMissingCreateAccess
		log.Info("creation denied")
		return nil
	}
	s.state = render.StateReady
	log.V(1).Info("session opened", "creation", s.drafts.IsCreation(), "readonly", s.readonly)
	return nil
}

// SwitchForm opens a different form key in place, discarding pending results
// for the previous one.
func (s *Session) SwitchForm(ctx context.Context, formKey string) error {
	return s.Open(ctx, formKey)
}

// Close ends the session. Pending action results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.token = uuid.NewString()
	s.opened = false
	s.formKey = ""
	s.state = ""
	s.cfg = model.FormConfig{}
	s.actions = nil
	s.drafts = nil
	s.cascade = nil
	s.pipeline = nil
	s.readonly = false
	s.errors = nil
}

func (s *Session) creationCheck(d model.Draft) bool {
	return !s.custom && d["id"] == nil
}

// Token identifies the current incarnation of the session. It changes on
// every Open, SwitchForm and Close.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// FormKey returns the key passed to Open.
func (s *Session) FormKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formKey
}

// State returns the session state; empty before Open and after Close.
func (s *Session) State() render.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the resolved configuration.
func (s *Session) Config() model.FormConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Session) ready() bool {
	return s.opened && s.state == render.StateReady
}

// HandleFieldChange writes value at key and runs the dependency cascade. It
// reports whether the draft changed. Changes are rejected unless the session
// is ready and the field is editable.
func (s *Session) HandleFieldChange(key string, value any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return false, ErrNotReady
	}
	if s.effectiveReadonly() {
		return false, ErrReadonly
	}
	if field, ok := s.cfg.Field(key); ok && field.Readonly {
		return false, ErrReadonly
	}

	current := s.drafts.Current()
	next := s.cascade.Apply(key, value, current, s.ext)
	if draft.Same(next, current) {
		return false, nil
	}
	s.drafts.SetDraft(next)
	s.log.V(1).Info("field changed", "form", s.formKey, "field", key)
	return true, nil
}

func (s *Session) effectiveReadonly() bool {
	policy := render.ReadonlyPolicy{Session: s.readonly, Conditional: s.cfg.ReadonlyIf}
	readonly, err := policy.Resolve(s.drafts.Current(), s.ext)
	if err != nil {
		s.log.Error(err, "readonly predicate failed", "form", s.formKey)
	}
	return readonly
}

// Actions returns the executable actions for the current draft. Terminal and
// closed sessions have none.
func (s *Session) Actions() []action.Executable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executables()
}

func (s *Session) executables() []action.Executable {
	if !s.ready() {
		return nil
	}
	return s.pipeline.Build(s.actions, s.drafts.Current(), s.ext)
}

// Invoke runs the action named key. When the action needs validation and the
// draft fails it, the errors are stored for display, returned in the Outcome,
// and the effect does not run. Effect errors are returned to the caller.
// Results that arrive after the session token changed are discarded with
// ErrStaleSession.
func (s *Session) Invoke(ctx context.Context, key string) (Outcome, error) {
	s.mu.Lock()
	var exec *action.Executable
	for _, item := range s.executables() {
		if item.Key() == key {
			item := item
			exec = &item
			break
		}
	}
	if !s.ready() {
		s.mu.Unlock()
		return Outcome{}, ErrNotReady
	}
	if exec == nil {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %q", ErrActionNotFound, key)
	}
	if exec.Descriptor.Disabled {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %q", ErrActionDisabled, key)
	}
	token := s.token
	cfg := s.cfg
	snapshot := draft.Clone(s.drafts.Current())
	validator := s.validator
	s.mu.Unlock()

	outcome := Outcome{Action: key}

	if exec.Descriptor.NeedValidation && validator != nil {
		if err := validator.Validate(ctx, cfg, snapshot); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return outcome, err
			}
			errs, _ := validation.ErrorsFrom(err)
			if len(errs) == 0 {
				errs = validation.Errors{{Message: blankValidationMessage(err)}}
			}

			s.mu.Lock()
			defer s.mu.Unlock()
			if s.token != token {
				return Outcome{}, ErrStaleSession
			}
			s.errors = errs
			outcome.Errors = errs
			return outcome, nil
		}
	}

	if s.Token() != token {
		return Outcome{}, ErrStaleSession
	}
	if err := exec.Action.Effect(ctx, snapshot); err != nil {
		return outcome, fmt.Errorf("form: action %q: %w", key, err)
	}
	outcome.Ran = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return outcome, ErrStaleSession
	}
	s.errors = nil
	if exec.Descriptor.ReadonlyAfterAction {
		s.readonly = true
	}
	return outcome, nil
}

// blankValidationMessage covers validators that fail without a usable message.
func blankValidationMessage(err error) string {
	var list validation.Errors
	var single validation.FieldError
	if errors.As(err, &list) || errors.As(err, &single) {
		return "validation failed"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "validation failed"
}

// IsDirty reports whether the draft has unsaved changes.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts != nil && s.drafts.IsDirty()
}

// IsCreation reports whether the draft is a record that does not exist yet.
func (s *Session) IsCreation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts != nil && s.drafts.IsCreation()
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drafts == nil {
		return nil
	}
	return draft.Clone(s.drafts.Current())
}

// Errors returns the validation errors from the last failed invocation.
func (s *Session) Errors() validation.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(validation.Errors(nil), s.errors...)
}

// ClearErrors dismisses stored validation errors.
func (s *Session) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = nil
}

// ToggleReadonly flips the session readonly flag and returns the new value.
func (s *Session) ToggleReadonly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readonly = !s.readonly
	return s.readonly
}

// Readonly reports the session readonly flag. The configuration's readonlyIf
// predicate is applied on top of it when rendering.
func (s *Session) Readonly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readonly
}

// Reset restores the creation default for creation drafts and the default
// value otherwise.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrNotReady
	}
	if s.drafts.IsCreation() {
		s.drafts.Reset(draft.Clone(s.creationDefault))
	} else {
		s.drafts.Reset(draft.Clone(s.defaultValue))
	}
	s.errors = nil
	return nil
}

// Create replaces the draft with the creation default.
func (s *Session) Create() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrNotReady
	}
	if !s.permissions.CanCreate {
		return ErrMissingCreateAccess
	}
	s.drafts.SetDraft(draft.Clone(s.creationDefault))
	s.errors = nil
	return nil
}

// ApplyRecord reconciles a record arriving from the backing store. It reports
// whether the draft was replaced. A session stopped on missing create access
// becomes ready once the record turns the draft into an existing one.
func (s *Session) ApplyRecord(record model.Draft) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiting := s.opened && s.state == render.StateMissingCreateAccess
	if !s.ready() && !waiting {
		return false, ErrNotReady
	}
	replaced := s.drafts.Reconcile(draft.Clone(record))
	if waiting && !s.drafts.IsCreation() {
		s.state = render.StateReady
		s.log.V(1).Info("record loaded", "form", s.formKey, "session", s.token)
	}
	return replaced, nil
}

// Render builds the view for the current state. Terminal states render only
// their message.
func (s *Session) Render() (render.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return render.View{}, ErrNotReady
	}

	view := render.View{FormKey: s.formKey}
	if s.state != render.StateReady {
		view.Tree = render.Terminal(s.state)
	} else {
		current := s.drafts.Current()
		view.Title = s.cfg.Title
		view.Tree = s.dispatcher.Render(s.cfg.Content, current, render.ReadonlyPolicy{
			Session:     s.readonly,
			Conditional: s.cfg.ReadonlyIf,
		}, s.ext)
		fields, formLevel := s.errors.ByField()
		view.FormErrors = render.MapErrors(&view.Tree, render.ErrorMapping{Fields: fields, Form: formLevel})
		for _, exec := range s.executables() {
			view.Actions = append(view.Actions, exec.Descriptor)
		}
		view.Readonly = s.readonly
		view.Dirty = s.drafts.IsDirty()
		view.Creation = s.drafts.IsCreation()
	}

	render.Localize(&view, render.LocalizeOptions{Locale: s.locale, Translator: s.translator})
	return view, nil
}
