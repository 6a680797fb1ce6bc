package orchestrator_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/form"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/orchestrator"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/testsupport"
)

type stubRenderer struct {
	last render.View
}

func (s *stubRenderer) Name() string        { return "stub" }
func (s *stubRenderer) ContentType() string { return "text/plain" }
func (s *stubRenderer) Render(_ context.Context, view render.View) ([]byte, error) {
	s.last = view
	return []byte(view.FormKey), nil
}

func projectRegistry(t *testing.T) *config.Registry {
	t.Helper()
	return testsupport.LoadRegistry(t, filepath.Join("..", "config", "testdata", "forms"), nil)
}

func TestOrchestrator_GenerateWithDefaultHTMLRenderer(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(orchestrator.WithResolver(projectRegistry(t)))
	if diff := cmp.Diff([]string{"html"}, orch.Renderers()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}

	out, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		FormKey:     "project-form",
		Record:      model.Draft{"id": "p1", "name": "Apollo"},
		Permissions: action.Permissions{CanCreate: true},
		Options:     []form.Option{form.WithFloatingTools(false)},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := string(out)
	for _, want := range []string{`data-form="project-form"`, `value="Apollo"`, `value="save"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestOrchestrator_RenderAddsHiddenFields(t *testing.T) {
	t.Parallel()

	stub := &stubRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(stub)

	orch := orchestrator.New(
		orchestrator.WithResolver(projectRegistry(t)),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer("stub"),
	)
	session, err := orch.Open(testsupport.Context(), orchestrator.Request{
		FormKey: "project-form",
		Record:  model.Draft{"id": "p1"},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	out, contentType, err := orch.Render(testsupport.Context(), session, "", render.Hidden("session", "s-1"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "project-form" || contentType != "text/plain" {
		t.Fatalf("unexpected output %q %q", out, contentType)
	}
	if diff := cmp.Diff([]render.HiddenField{{Name: "session", Value: "s-1"}}, stub.last.Hidden); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := orch.Render(testsupport.Context(), session, "pdf"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestOrchestrator_MissingFormIsTerminal(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(orchestrator.WithResolver(config.NewRegistry()))
	session, err := orch.Open(testsupport.Context(), orchestrator.Request{FormKey: "nope"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.State() != render.StateNotFound {
		t.Fatalf("expected not found state, got %s", session.State())
	}

	out, err := orch.Generate(testsupport.Context(), orchestrator.Request{FormKey: "nope"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), "Form not found") {
		t.Fatalf("expected terminal message, got:\n%s", out)
	}
}

func TestOrchestrator_RequestValidation(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New()
	if _, err := orch.Open(testsupport.Context(), orchestrator.Request{FormKey: "x"}); err == nil {
		t.Fatalf("expected missing resolver error")
	}

	orch = orchestrator.New(orchestrator.WithResolver(config.NewRegistry()))
	if _, err := orch.Open(testsupport.Context(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected missing form key error")
	}

	boom := errors.New("backend down")
	failing := orchestrator.New(orchestrator.WithResolver(config.ResolverFunc(func(context.Context, string) (model.FormConfig, error) {
		return model.FormConfig{}, boom
	})))
	if _, err := failing.Open(testsupport.Context(), orchestrator.Request{FormKey: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected resolver error, got %v", err)
	}
}

func TestOrchestrator_AppliesTransformerToCopy(t *testing.T) {
	t.Parallel()

	registry := projectRegistry(t)
	stub := &stubRenderer{}
	renderers := render.NewRegistry()
	renderers.MustRegister(stub)

	called := false
	orch := orchestrator.New(
		orchestrator.WithResolver(registry),
		orchestrator.WithRegistry(renderers),
		orchestrator.WithDefaultRenderer("stub"),
		orchestrator.WithSchemaTransformer(orchestrator.TransformerFunc(func(_ context.Context, cfg *model.FormConfig) error {
			called = true
			cfg.Title = "Patched"
			cfg.Content[0].Field.Label = "Patched name"
			return nil
		})),
	)

	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{FormKey: "project-form", Record: model.Draft{"id": 1}}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !called {
		t.Fatalf("expected transformer to be invoked")
	}
	if stub.last.Title != "Patched" || stub.last.Tree.Nodes[0].Label != "Patched name" {
		t.Fatalf("transform not applied: %+v", stub.last)
	}

	original, err := registry.Resolve(testsupport.Context(), "project-form")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if original.Title != "Project" || original.Content[0].Field.Label != "Name" {
		t.Fatalf("transformer mutated the registry copy: %q %q", original.Title, original.Content[0].Field.Label)
	}
}

func TestJSONPresetTransformerFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"presets/project.json": {Data: []byte(`{
			"title": "Project (beta)",
			"fields": {"city": {"label": "Town", "helpText": "Where it happens", "order": 9, "readonly": true}},
			"panels": {"location": {"title": "Where", "order": 7}}
		}`)},
		"presets/bad.json": {Data: []byte(`{"fields": {"ghost": {"label": "x"}}}`)},
	}

	cfg, err := projectRegistry(t).Resolve(testsupport.Context(), "project-form")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cfg = orchestrator.CloneConfig(cfg)

	transformer, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "presets/project.json")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	if err := transformer.Transform(testsupport.Context(), &cfg); err != nil {
		t.Fatalf("transform: %v", err)
	}

	if cfg.Title != "Project (beta)" {
		t.Fatalf("title not patched: %q", cfg.Title)
	}
	city, ok := cfg.Field("city")
	if !ok {
		t.Fatalf("city missing")
	}
	if city.Label != "Town" || city.HelpText != "Where it happens" || city.Order != 9 || !city.Readonly {
		t.Fatalf("field patch not applied: %+v", city)
	}
	if panel := cfg.Content[1].Panel; panel == nil || panel.Title != "Where" || panel.Order != 7 {
		t.Fatalf("panel patch not applied: %+v", cfg.Content[1])
	}

	bad, err := orchestrator.NewJSONPresetTransformerFromFS(fsys, "presets/bad.json")
	if err != nil {
		t.Fatalf("load bad preset: %v", err)
	}
	if err := bad.Transform(testsupport.Context(), &cfg); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := orchestrator.NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := orchestrator.NewJSONPresetTransformerFromFS(nil, "x"); err == nil {
		t.Fatalf("expected nil fs error")
	}
}
