package html_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/renderers/html"
	"github.com/goliatone/go-formview/pkg/testsupport"
)

func readyView() render.View {
	return render.View{
		FormKey: "project-form",
		Title:   "Project",
		Locale:  "en",
		Tree: render.Tree{
			State: render.StateReady,
			Nodes: []render.ViewNode{
				{
					Kind: model.NodeField, Key: "name", Label: "Name", Type: model.FieldTypeString,
					Value: `Ada & "co"`, Required: true, Errors: []string{"is required"},
					HelpText: `<b>Bold</b> hint<script>alert(1)</script>`,
				},
				{
					Kind: model.NodePanel, Key: "location", Label: "Location",
					Children: []render.ViewNode{
						{Kind: model.NodeField, Key: "location.city", Label: "City", Type: model.FieldTypeString, Readonly: true, Value: "Paris"},
						{Kind: model.NodeField, Key: "location.active", Label: "Active", Type: model.FieldTypeBoolean, Value: true},
					},
				},
				{Kind: model.NodeField, Key: "budget", Label: "Budget", Type: model.FieldTypeNumber, Value: 12.5},
			},
		},
		Actions: []model.Descriptor{
			{Key: "save", Type: model.ActionUpdate, Title: "Save", Icon: "check"},
			{Key: "archive", Type: model.ActionCustom, Title: "Archive", Disabled: true},
		},
		FormErrors: []string{"dates overlap"},
		Dirty:      true,
		Hidden:     []render.HiddenField{render.Hidden("session", "abc")},
	}
}

func TestRendererDrawsReadyView(t *testing.T) {
	t.Parallel()

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if renderer.Name() != "html" || renderer.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected identity: %s %s", renderer.Name(), renderer.ContentType())
	}

	out, err := renderer.Render(context.Background(), readyView())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)

	for _, want := range []string{
		`data-form="project-form"`,
		`<h1 class="formview__title">Project</h1>`,
		`Unsaved changes`,
		`<input type="hidden" name="session" value="abc">`,
		`<li>dates overlap</li>`,
		`id="fv-name" type="text" name="name" value="Ada &amp; &quot;co&quot;" required`,
		`<p class="formview__error">is required</p>`,
		`<b>Bold</b> hint`,
		`<fieldset class="formview__panel" id="fv-location">`,
		`<legend>Location</legend>`,
		`name="location.city" value="Paris" readonly`,
		`type="checkbox" name="location.active" value="true" checked`,
		`type="number" name="budget" value="12.5"`,
		`value="save" class="formview__action formview__action--update"`,
		`value="archive" class="formview__action formview__action--custom" disabled`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "<script") {
		t.Fatalf("help text was not sanitized:\n%s", got)
	}
	if strings.Index(got, `name="name"`) > strings.Index(got, `name="location.city"`) {
		t.Fatalf("fields rendered out of order:\n%s", got)
	}
}

func TestRendererReadonlyHidesRecordActions(t *testing.T) {
	t.Parallel()

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := readyView()
	view.Readonly = true

	out, err := renderer.Render(context.Background(), view)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	if strings.Contains(got, `value="save"`) {
		t.Fatalf("update action should be hidden while readonly:\n%s", got)
	}
	if !strings.Contains(got, `value="archive"`) {
		t.Fatalf("custom action should stay visible:\n%s", got)
	}
	if !strings.Contains(got, `name="toggle" value="readonly"`) {
		t.Fatalf("expected edit toggle:\n%s", got)
	}
}

func TestRendererTerminalView(t *testing.T) {
	t.Parallel()

	renderer, err := html.New(html.WithTranslator(testsupport.MapTranslator{
		"es": {html.MessageFormErrors: "Corrija los errores"},
	}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	view := render.View{FormKey: "missing", Locale: "es", Tree: render.Terminal(render.StateNotFound)}
	render.Localize(&view, render.LocalizeOptions{Locale: "es"})

	out, err := renderer.Render(context.Background(), view)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, `<p class="formview__message" role="alert">Form not found</p>`) {
		t.Fatalf("expected terminal message:\n%s", got)
	}
	if strings.Contains(got, "<form") {
		t.Fatalf("terminal view must not render a form:\n%s", got)
	}
	if !strings.Contains(got, `data-state="not_found"`) || !strings.Contains(got, `lang="es"`) {
		t.Fatalf("expected state and locale attributes:\n%s", got)
	}
}

func TestRendererTranslatesChrome(t *testing.T) {
	t.Parallel()

	renderer, err := html.New(html.WithTranslator(testsupport.MapTranslator{
		"es": {html.MessageFormErrors: "Corrija los errores", html.MessageDirty: "Cambios sin guardar"},
	}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := readyView()
	view.Locale = "es"

	out, err := renderer.Render(context.Background(), view)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	for _, want := range []string{"Corrija los errores", "Cambios sin guardar"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRendererCustomTemplates(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		html.FormTemplate: {Data: []byte(`{{ form.key }}:{% for item in form.items %}{{ item.kind }};{% endfor %}{{ translate(form.locale, "greeting") }}`)},
	}
	renderer, err := html.New(
		html.WithTemplatesFS(fsys),
		html.WithTranslator(testsupport.MapTranslator{"en": {"greeting": "hi"}}),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(context.Background(), readyView())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "project-form:field;panel_open;field;field;panel_close;field;hi"
	if string(out) != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, string(out))
	}
}

func TestRendererHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, readyView()); err == nil {
		t.Fatalf("expected context error")
	}
}

type capturingTemplates struct {
	name string
	data map[string]any
}

func (c *capturingTemplates) RenderTemplate(name string, data map[string]any, _ ...io.Writer) (string, error) {
	c.name = name
	c.data = data
	return "<form></form>", nil
}

func TestRendererUsesInjectedTemplateRenderer(t *testing.T) {
	t.Parallel()

	templates := &capturingTemplates{}
	renderer, err := html.New(html.WithTemplateRenderer(templates))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), readyView())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "<form></form>" || templates.name != html.FormTemplate {
		t.Fatalf("unexpected render %q via %q", out, templates.name)
	}
	form, ok := templates.data["form"].(map[string]any)
	if !ok || form["key"] != "project-form" || form["dirty"] != true {
		t.Fatalf("unexpected template data: %+v", templates.data["form"])
	}
}
