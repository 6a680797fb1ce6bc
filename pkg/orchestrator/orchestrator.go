package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/form"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/renderers/html"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithResolver sets where form configurations come from.
func WithResolver(resolver config.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = resolver
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that rewrites resolved
// configurations before a session sees them.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithSessionOptions appends options applied to every session the
// orchestrator opens, ahead of per-request options.
func WithSessionOptions(options ...form.Option) Option {
	return func(o *Orchestrator) {
		o.sessionOptions = append(o.sessionOptions, options...)
	}
}

// WithLogger routes orchestrator and session diagnostics to log.
func WithLogger(log logr.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// Orchestrator opens form sessions against a resolver and renders them with
// a named renderer. It defaults to the html renderer so callers can start
// with a single constructor call.
type Orchestrator struct {
	resolver        config.Resolver
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	sessionOptions  []form.Option
	log             logr.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		log:             logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one session to open.
type Request struct {
	// FormKey selects the configuration.
	FormKey string

	// Record is the stored record being edited. Nil opens a creation draft.
	Record model.Draft

	// CreationDefault seeds new records.
	CreationDefault model.Draft

	// Permissions gates actions and creation.
	Permissions action.Permissions

	// Renderer names the renderer Generate uses. Empty falls back to the
	// configured default.
	Renderer string

	// Options are applied after the orchestrator-wide session options.
	Options []form.Option
}

// Open resolves the form and returns a session ready for edits. A missing
// form or missing create access yields a session on a terminal state.
func (o *Orchestrator) Open(ctx context.Context, req Request) (*form.Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if req.FormKey == "" {
		return nil, errors.New("orchestrator: form key is required")
	}
	if o.resolver == nil {
		return nil, errors.New("orchestrator: resolver is nil")
	}

	options := make([]form.Option, 0, len(o.sessionOptions)+len(req.Options)+5)
	options = append(options,
		form.WithLogger(o.log.WithValues("form", req.FormKey)),
		form.WithResolver(o.resolverWithTransform()),
		form.WithPermissions(req.Permissions),
		form.WithDefaultValue(req.Record),
		form.WithCreationDefault(req.CreationDefault),
	)
	options = append(options, o.sessionOptions...)
	options = append(options, req.Options...)

	session := form.New(options...)
	if err := session.Open(ctx, req.FormKey); err != nil {
		return nil, fmt.Errorf("orchestrator: open %s: %w", req.FormKey, err)
	}
	o.log.V(1).Info("session opened", "form", req.FormKey, "state", session.State(), "token", session.Token())
	return session, nil
}

// Render draws session with the named renderer and returns the bytes and
// their content type. Hidden fields are added to the view before rendering.
func (o *Orchestrator) Render(ctx context.Context, session *form.Session, rendererName string, hidden ...render.HiddenField) ([]byte, string, error) {
	if session == nil {
		return nil, "", errors.New("orchestrator: session is nil")
	}
	renderer, err := o.rendererFor(rendererName)
	if err != nil {
		return nil, "", err
	}
	view, err := session.Render()
	if err != nil {
		return nil, "", fmt.Errorf("orchestrator: build view: %w", err)
	}
	view.Hidden = render.SortedHidden(append(view.Hidden, hidden...)...)

	output, err := renderer.Render(ctx, view)
	if err != nil {
		return nil, "", fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, renderer.ContentType(), nil
}

// Generate opens a session for req and renders it in one step.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := o.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	output, _, err := o.Render(ctx, session, req.Renderer)
	return output, err
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

// Resolver returns the configuration source, wrapped with the transformer
// when one is configured.
func (o *Orchestrator) Resolver() config.Resolver {
	return o.resolverWithTransform()
}

func (o *Orchestrator) resolverWithTransform() config.Resolver {
	if o.transformer == nil || o.resolver == nil {
		return o.resolver
	}
	return config.ResolverFunc(func(ctx context.Context, formKey string) (model.FormConfig, error) {
		cfg, err := o.resolver.Resolve(ctx, formKey)
		if err != nil {
			return model.FormConfig{}, err
		}
		cfg = CloneConfig(cfg)
		if err := o.transformer.Transform(ctx, &cfg); err != nil {
			return model.FormConfig{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
		return cfg, nil
	})
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New(html.WithLogger(o.log))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
