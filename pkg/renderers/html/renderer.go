// Package html renders form views as server-side HTML using pongo2 templates.
package html

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
	rendertemplate "github.com/goliatone/go-formview/pkg/render/template"
	"github.com/goliatone/go-formview/pkg/render/template/pongo"
)

// Chrome message keys translated per render. Missing translations fall back
// to the English defaults.
const (
	MessageFormErrors = "Base_FormErrors"
	MessageDirty      = "Base_UnsavedChanges"
	MessageEdit       = "Base_Edit"
)

var chromeDefaults = map[string]string{
	MessageFormErrors: "Please correct the errors below",
	MessageDirty:      "Unsaved changes",
	MessageEdit:       "Edit",
}

// Option customises the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	translator       render.Translator
	log              logr.Logger
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// templates/form.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTranslator localises chrome strings and backs the translate template
// helper.
func WithTranslator(t render.Translator) Option {
	return func(cfg *config) {
		cfg.translator = t
	}
}

// WithLogger routes render diagnostics to log.
func WithLogger(log logr.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// Renderer draws a render.View as an HTML fragment.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	translator render.Translator
	log        logr.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
			pongo.WithTemplateFunc(render.TemplateI18nFuncs(cfg.translator, render.TemplateI18nConfig{})),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, translator: cfg.translator, log: cfg.log}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, view render.View) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.templates.RenderTemplate(FormTemplate, map[string]any{
		"form":   buildForm(view),
		"labels": r.labels(view.Locale),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	r.log.V(1).Info("rendered form", "form", view.FormKey, "state", view.Tree.State, "bytes", len(result))
	return []byte(result), nil
}

func (r *Renderer) labels(locale string) map[string]any {
	return map[string]any{
		"formErrors": render.Translate(locale, MessageFormErrors, chromeDefaults[MessageFormErrors], r.translator),
		"dirty":      render.Translate(locale, MessageDirty, chromeDefaults[MessageDirty], r.translator),
		"edit":       render.Translate(locale, MessageEdit, chromeDefaults[MessageEdit], r.translator),
	}
}

// buildForm flattens the view into plain template data. Panels become
// open/close markers around their children so templates stay non-recursive.
func buildForm(view render.View) map[string]any {
	hidden := make([]any, 0, len(view.Hidden))
	for _, field := range render.SortedHidden(view.Hidden...) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	return map[string]any{
		"key":      view.FormKey,
		"title":    view.Title,
		"locale":   view.Locale,
		"state":    string(view.Tree.State),
		"terminal": !view.Tree.Ready(),
		"message":  view.Tree.Message,
		"readonly": view.Readonly,
		"dirty":    view.Dirty,
		"creation": view.Creation,
		"errors":   stringsToAny(view.FormErrors),
		"hidden":   hidden,
		"items":    flatten(view.Tree.Nodes, nil),
		"actions":  visibleActions(view),
	}
}

// visibleActions hides record actions while the view is readonly; custom
// actions stay available.
func visibleActions(view render.View) []any {
	out := make([]any, 0, len(view.Actions))
	for _, desc := range view.Actions {
		if view.Readonly && desc.Type != model.ActionCustom {
			continue
		}
		out = append(out, map[string]any{
			"key":      desc.Key,
			"type":     string(desc.Type),
			"title":    desc.Title,
			"icon":     desc.Icon,
			"color":    desc.Color,
			"disabled": desc.Disabled,
		})
	}
	return out
}

func flatten(nodes []render.ViewNode, out []any) []any {
	for _, node := range nodes {
		if node.IsPanel() {
			out = append(out, map[string]any{"kind": "panel_open", "key": node.Key, "label": node.Label})
			out = flatten(node.Children, out)
			out = append(out, map[string]any{"kind": "panel_close", "key": node.Key})
			continue
		}
		checked, _ := node.Value.(bool)
		out = append(out, map[string]any{
			"kind":        "field",
			"key":         node.Key,
			"label":       node.Label,
			"input":       inputType(node.Type),
			"value":       formatValue(node.Value),
			"checked":     checked,
			"readonly":    node.Readonly,
			"required":    node.Required,
			"help":        sanitizeHelp(node.HelpText),
			"placeholder": node.Placeholder,
			"errors":      stringsToAny(node.Errors),
		})
	}
	return out
}

func inputType(t model.FieldType) string {
	switch t {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return "number"
	case model.FieldTypeBoolean:
		return "checkbox"
	case model.FieldTypeDate:
		return "date"
	case model.FieldTypeObject:
		return "textarea"
	default:
		return "text"
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any, []any:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
