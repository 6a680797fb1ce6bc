package config

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formview/pkg/model"
)

// LoadFS walks fsys and parses every JSON/YAML form document into a Registry.
// Named derivations, predicates and effects resolve through funcs; a nil funcs
// uses the built-ins only. When fsys is nil the registry is empty.
func LoadFS(fsys fs.FS, funcs *Functions) (*Registry, error) {
	return LoadMatching(fsys, "", funcs)
}

// LoadMatching is LoadFS restricted to documents whose slash-separated path
// matches pattern, a doublestar glob such as "forms/**/*.yaml". An empty
// pattern matches every document.
func LoadMatching(fsys fs.FS, pattern string, funcs *Functions) (*Registry, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("config: invalid pattern %q", pattern)
	}
	registry := NewRegistry()
	if fsys == nil {
		return registry, nil
	}
	if funcs == nil {
		funcs = NewFunctions()
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(path) {
			return nil
		}
		if pattern != "" {
			matched, err := doublestar.Match(pattern, path)
			if err != nil {
				return fmt.Errorf("config: pattern %q: %w", pattern, err)
			}
			if !matched {
				return nil
			}
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for key, raw := range doc.Forms {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("config: file %s defines an empty form key", path)
			}
			if registry.Has(key) {
				return fmt.Errorf("config: duplicate form %q (file %s)", key, path)
			}
			cfg, err := buildForm(key, raw, funcs)
			if err != nil {
				return fmt.Errorf("config: form %q (file %s): %w", key, path, err)
			}
			if err := registry.Register(cfg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}

type documentFile struct {
	Forms map[string]formFile `json:"forms" yaml:"forms"`
}

type formFile struct {
	ModelName  string       `json:"modelName" yaml:"modelName"`
	Title      string       `json:"title" yaml:"title"`
	ReadonlyIf string       `json:"readonlyIf" yaml:"readonlyIf"`
	Content    []nodeFile   `json:"content" yaml:"content"`
	Actions    []actionFile `json:"actions" yaml:"actions"`
}

type nodeFile struct {
	Field       string                 `json:"field" yaml:"field"`
	Panel       string                 `json:"panel" yaml:"panel"`
	Order       int                    `json:"order" yaml:"order"`
	Label       string                 `json:"label" yaml:"label"`
	Title       string                 `json:"title" yaml:"title"`
	Type        model.FieldType        `json:"type" yaml:"type"`
	HelpText    string                 `json:"helpText" yaml:"helpText"`
	Placeholder string                 `json:"placeholder" yaml:"placeholder"`
	Readonly    bool                   `json:"readonly" yaml:"readonly"`
	DependsOn   map[string]string      `json:"dependsOn" yaml:"dependsOn"`
	Rules       []model.ValidationRule `json:"rules" yaml:"rules"`
	Content     []nodeFile             `json:"content" yaml:"content"`
}

type actionFile struct {
	Key                 string           `json:"key" yaml:"key"`
	Type                model.ActionType `json:"type" yaml:"type"`
	Title               string           `json:"title" yaml:"title"`
	Icon                string           `json:"icon" yaml:"icon"`
	Color               string           `json:"color" yaml:"color"`
	HideIf              string           `json:"hideIf" yaml:"hideIf"`
	DisabledIf          string           `json:"disabledIf" yaml:"disabledIf"`
	Effect              string           `json:"effect" yaml:"effect"`
	NeedValidation      bool             `json:"needValidation" yaml:"needValidation"`
	ReadonlyAfterAction bool             `json:"readonlyAfterAction" yaml:"readonlyAfterAction"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("config: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return doc, nil
}

func buildForm(key string, raw formFile, funcs *Functions) (model.FormConfig, error) {
	cfg := model.FormConfig{
		Key:       key,
		ModelName: strings.TrimSpace(raw.ModelName),
		Title:     raw.Title,
	}

	readonlyIf, err := funcs.Predicate(raw.ReadonlyIf)
	if err != nil {
		return model.FormConfig{}, fmt.Errorf("readonlyIf: %w", err)
	}
	cfg.ReadonlyIf = readonlyIf

	seen := make(map[string]struct{})
	content, err := buildNodes(raw.Content, funcs, seen)
	if err != nil {
		return model.FormConfig{}, err
	}
	cfg.Content = content

	actions := make([]model.Action, 0, len(raw.Actions))
	for idx, item := range raw.Actions {
		act, err := buildAction(item, funcs)
		if err != nil {
			return model.FormConfig{}, fmt.Errorf("action %d: %w", idx, err)
		}
		actions = append(actions, act)
	}
	if len(actions) > 0 {
		cfg.Actions = actions
	}
	return cfg, nil
}

func buildNodes(raw []nodeFile, funcs *Functions, seen map[string]struct{}) ([]model.Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]model.Node, 0, len(raw))
	for idx, item := range raw {
		fieldKey := strings.TrimSpace(item.Field)
		panelKey := strings.TrimSpace(item.Panel)
		switch {
		case fieldKey != "" && panelKey != "":
			return nil, fmt.Errorf("node %d declares both field %q and panel %q", idx, fieldKey, panelKey)
		case fieldKey == "" && panelKey == "":
			return nil, fmt.Errorf("node %d declares neither field nor panel", idx)
		case panelKey != "":
			children, err := buildNodes(item.Content, funcs, seen)
			if err != nil {
				return nil, fmt.Errorf("panel %q: %w", panelKey, err)
			}
			out = append(out, model.PanelNode(model.Panel{
				Key:      panelKey,
				Order:    item.Order,
				Title:    item.Title,
				Children: children,
			}))
		default:
			if _, dup := seen[fieldKey]; dup {
				return nil, fmt.Errorf("field %q declared twice", fieldKey)
			}
			seen[fieldKey] = struct{}{}
			field, err := buildField(fieldKey, item, funcs)
			if err != nil {
				return nil, err
			}
			out = append(out, model.FieldNode(field))
		}
	}
	return out, nil
}

func buildField(key string, raw nodeFile, funcs *Functions) (model.Field, error) {
	fieldType := raw.Type
	if fieldType == "" {
		fieldType = model.FieldTypeString
	}
	field := model.Field{
		Key:         key,
		Order:       raw.Order,
		Label:       raw.Label,
		Type:        fieldType,
		HelpText:    raw.HelpText,
		Placeholder: raw.Placeholder,
		Readonly:    raw.Readonly,
		Rules:       append([]model.ValidationRule(nil), raw.Rules...),
	}
	for i, r := range field.Rules {
		if strings.TrimSpace(r.Kind) == "" {
			return model.Field{}, fmt.Errorf("field %q rule %d has no kind", key, i)
		}
	}

	if len(raw.DependsOn) > 0 {
		field.DependsOn = make(map[string]model.Derivation, len(raw.DependsOn))
		for source, name := range raw.DependsOn {
			source = strings.TrimSpace(source)
			if source == key {
				return model.Field{}, fmt.Errorf("field %q depends on itself", key)
			}
			fn, ok := funcs.Derivation(name)
			if !ok {
				return model.Field{}, fmt.Errorf("field %q: unknown derivation %q", key, name)
			}
			field.DependsOn[source] = fn
		}
	}
	return field, nil
}

func buildAction(raw actionFile, funcs *Functions) (model.Action, error) {
	key := strings.TrimSpace(raw.Key)
	if key == "" {
		return model.Action{}, fmt.Errorf("key is required")
	}
	switch raw.Type {
	case model.ActionCreate, model.ActionUpdate, model.ActionDelete, model.ActionCustom:
	default:
		return model.Action{}, fmt.Errorf("action %q: unknown type %q", key, raw.Type)
	}

	effect, ok := funcs.Effect(raw.Effect)
	if !ok {
		return model.Action{}, fmt.Errorf("action %q: unknown effect %q", key, raw.Effect)
	}
	hideIf, err := funcs.Predicate(raw.HideIf)
	if err != nil {
		return model.Action{}, fmt.Errorf("action %q hideIf: %w", key, err)
	}
	disabled, err := funcs.Predicate(raw.DisabledIf)
	if err != nil {
		return model.Action{}, fmt.Errorf("action %q disabledIf: %w", key, err)
	}

	return model.Action{
		Key:                 key,
		Type:                raw.Type,
		Title:               raw.Title,
		Icon:                raw.Icon,
		Color:               raw.Color,
		HideIf:              hideIf,
		Disabled:            disabled,
		Effect:              effect,
		NeedValidation:      raw.NeedValidation,
		ReadonlyAfterAction: raw.ReadonlyAfterAction,
	}, nil
}

func isFormFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
