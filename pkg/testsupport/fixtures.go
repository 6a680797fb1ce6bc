package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
)

// ErrNoTranslation is returned by MapTranslator for unknown keys.
var ErrNoTranslation = errors.New("testsupport: no translation")

// MapTranslator translates from an in-memory locale -> key -> message table.
// Messages containing verbs are formatted with the call arguments.
type MapTranslator map[string]map[string]string

// Translate implements the render and action Translator contracts.
func (m MapTranslator) Translate(locale, key string, args ...any) (string, error) {
	msg, ok := m[locale][key]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrNoTranslation, locale, key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...), nil
	}
	return msg, nil
}

// LoadRegistry loads every form document under dir. Named functions resolve
// through funcs (nil for built-ins only).
func LoadRegistry(t *testing.T, dir string, funcs *config.Functions) *config.Registry {
	t.Helper()

	registry, err := config.LoadFS(os.DirFS(dir), funcs)
	if err != nil {
		t.Fatalf("load registry %s: %v", dir, err)
	}
	return registry
}

// MustLoadDraft reads a JSON fixture into a Draft.
func MustLoadDraft(t *testing.T, path string) model.Draft {
	t.Helper()

	draft, err := LoadDraft(path)
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	return draft
}

// LoadDraft reads a JSON fixture into a Draft, returning an error for callers
// managing setup outside of *testing.T.
func LoadDraft(path string) (model.Draft, error) {
	if path == "" {
		return nil, errors.New("testsupport: draft path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read draft: %w", err)
	}
	var out model.Draft
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal draft: %w", err)
	}
	return out, nil
}

// WriteGolden writes arbitrary data to a golden file as indented JSON when
// UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
