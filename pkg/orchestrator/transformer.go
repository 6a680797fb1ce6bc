package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formview/pkg/model"
)

// Transformer rewrites a resolved FormConfig before a session opens it. The
// config handed in is a private copy; mutate it freely.
type Transformer interface {
	Transform(ctx context.Context, cfg *model.FormConfig) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, cfg *model.FormConfig) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, cfg *model.FormConfig) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, cfg)
}

// JSONPresetTransformer applies declarative overrides loaded from JSON. Field
// and panel patches are keyed by node key:
//
//	{
//	  "title": "Project (beta)",
//	  "fields": {"name": {"label": "Project name", "order": 3}},
//	  "panels": {"location": {"title": "Where"}}
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Title  string                    `json:"title"`
	Fields map[string]jsonFieldPatch `json:"fields"`
	Panels map[string]jsonPanelPatch `json:"panels"`
}

type jsonFieldPatch struct {
	Label       string `json:"label"`
	HelpText    string `json:"helpText"`
	Placeholder string `json:"placeholder"`
	Order       *int   `json:"order"`
	Readonly    *bool  `json:"readonly"`
}

type jsonPanelPatch struct {
	Title string `json:"title"`
	Order *int   `json:"order"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the patches. A patch naming an unknown node is an error.
func (t *JSONPresetTransformer) Transform(ctx context.Context, cfg *model.FormConfig) error {
	if cfg == nil {
		return errors.New("json preset transformer: form config is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.document.Title != "" {
		cfg.Title = t.document.Title
	}
	for _, key := range sortedKeys(t.document.Fields) {
		field := findField(cfg.Content, key)
		if field == nil {
			return fmt.Errorf("json preset transformer: field %q not found", key)
		}
		applyFieldPatch(field, t.document.Fields[key])
	}
	for _, key := range sortedKeys(t.document.Panels) {
		panel := findPanel(cfg.Content, key)
		if panel == nil {
			return fmt.Errorf("json preset transformer: panel %q not found", key)
		}
		patch := t.document.Panels[key]
		if patch.Title != "" {
			panel.Title = patch.Title
		}
		if patch.Order != nil {
			panel.Order = *patch.Order
		}
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch jsonFieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.HelpText != "" {
		field.HelpText = patch.HelpText
	}
	if patch.Placeholder != "" {
		field.Placeholder = patch.Placeholder
	}
	if patch.Order != nil {
		field.Order = *patch.Order
	}
	if patch.Readonly != nil {
		field.Readonly = *patch.Readonly
	}
}

func findField(nodes []model.Node, key string) *model.Field {
	for _, node := range nodes {
		switch {
		case node.Kind == model.NodeField && node.Field != nil && node.Field.Key == key:
			return node.Field
		case node.Kind == model.NodePanel && node.Panel != nil:
			if field := findField(node.Panel.Children, key); field != nil {
				return field
			}
		}
	}
	return nil
}

func findPanel(nodes []model.Node, key string) *model.Panel {
	for _, node := range nodes {
		if node.Kind != model.NodePanel || node.Panel == nil {
			continue
		}
		if node.Panel.Key == key {
			return node.Panel
		}
		if panel := findPanel(node.Panel.Children, key); panel != nil {
			return panel
		}
	}
	return nil
}

// CloneConfig copies the node tree of cfg so field and panel structs can be
// edited without touching the resolver's copy. Rules, dependencies and
// actions are shared.
func CloneConfig(cfg model.FormConfig) model.FormConfig {
	cfg.Content = cloneNodes(cfg.Content)
	return cfg
}

func cloneNodes(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	out := make([]model.Node, len(nodes))
	for i, node := range nodes {
		out[i] = node
		if node.Field != nil {
			field := *node.Field
			out[i].Field = &field
		}
		if node.Panel != nil {
			panel := *node.Panel
			panel.Children = cloneNodes(node.Panel.Children)
			out[i].Panel = &panel
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
