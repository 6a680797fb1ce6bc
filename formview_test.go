package formview

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formview/pkg/config"
)

const contactForm = `
forms:
  contact:
    title: Contact
    content:
      - field: email
        label: Email
        order: 1
        rules:
          - kind: required
`

func TestGenerateHTMLFromLoadedForms(t *testing.T) {
	t.Parallel()

	registry, err := LoadForms(fstest.MapFS{"forms/contact.yaml": {Data: []byte(contactForm)}}, nil)
	if err != nil {
		t.Fatalf("load forms: %v", err)
	}

	out, err := GenerateHTML(context.Background(), registry, "contact", Draft{"id": 7, "email": "ada@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `value="ada@example.com"`) {
		t.Fatalf("expected email value in output:\n%s", out)
	}
}

func TestLoadOpenAPI(t *testing.T) {
	t.Parallel()

	doc := `
openapi: 3.0.3
info: {title: T, version: "1"}
paths: {}
components:
  schemas:
    Note:
      type: object
      properties:
        body: {type: string}
`
	resolver, err := LoadOpenAPI(fstest.MapFS{"api.yaml": {Data: []byte(doc)}}, "api.yaml")
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}
	out, err := GenerateHTML(context.Background(), resolver, "Note", Draft{"id": "n1", "body": "hi"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `name="body" value="hi"`) {
		t.Fatalf("expected body field in output:\n%s", out)
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	t.Parallel()

	if _, err := fs.ReadFile(EmbeddedTemplates(), "templates/form.tmpl"); err != nil {
		t.Fatalf("expected form template to be readable: %v", err)
	}
}

func TestLoadResolverChainsSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "forms"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "forms", "contact.yaml"), []byte(contactForm), 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}
	api := "openapi: 3.0.3\ninfo: {title: T, version: \"1\"}\npaths: {}\ncomponents:\n  schemas:\n    Note:\n      type: object\n      properties:\n        body: {type: string}\n"
	if err := os.WriteFile(filepath.Join(dir, "api.yaml"), []byte(api), 0o644); err != nil {
		t.Fatalf("write openapi: %v", err)
	}

	resolver, err := LoadResolver(filepath.Join(dir, "forms"), filepath.Join(dir, "api.yaml"))
	if err != nil {
		t.Fatalf("load resolver: %v", err)
	}
	for _, key := range []string{"contact", "Note"} {
		if _, err := resolver.Resolve(context.Background(), key); err != nil {
			t.Errorf("resolve %s: %v", key, err)
		}
	}
	if _, err := resolver.Resolve(context.Background(), "ghost"); !errors.Is(err, config.ErrFormNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := LoadResolver("", ""); err == nil {
		t.Fatalf("expected error without sources")
	}
	if _, err := LoadResolver(filepath.Join(dir, "missing"), ""); err == nil {
		t.Fatalf("expected error for missing forms dir")
	}
}
