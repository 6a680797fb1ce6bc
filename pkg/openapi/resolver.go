// Package openapi resolves form configurations from the component schemas of
// an OpenAPI 3 document.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
)

// Extension keys read from schema properties.
const (
	ExtensionOrder = "x-formview-order"
	ExtensionLabel = "x-formview-label"
)

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger routes skipped-property diagnostics to log.
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// WithValidation validates the document after loading.
func WithValidation() Option {
	return func(r *Resolver) {
		r.validate = true
	}
}

// WithModelPrefix prefixes the ModelName of every resolved form.
func WithModelPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.modelPrefix = prefix
	}
}

// Resolver maps form keys to components.schemas entries.
type Resolver struct {
	doc         *openapi3.T
	log         logr.Logger
	validate    bool
	modelPrefix string
}

var _ config.Resolver = (*Resolver)(nil)

// NewResolver parses raw (JSON or YAML) with kin-openapi.
func NewResolver(raw []byte, options ...Option) (*Resolver, error) {
	r := &Resolver{log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	ctx := context.Background()
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if r.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	r.doc = doc
	return r, nil
}

// NewResolverFromFS reads name from fsys and parses it.
func NewResolverFromFS(fsys fs.FS, name string, options ...Option) (*Resolver, error) {
	if fsys == nil {
		return nil, errors.New("openapi: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", name, err)
	}
	return NewResolver(data, options...)
}

// List returns the schema names available as form keys, sorted.
func (r *Resolver) List() []string {
	if r == nil || r.doc == nil || r.doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(r.doc.Components.Schemas))
	for name := range r.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the configuration for the schema named formKey.
func (r *Resolver) Resolve(ctx context.Context, formKey string) (model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.FormConfig{}, err
	}
	if r == nil || r.doc == nil || r.doc.Components == nil {
		return model.FormConfig{}, config.NotFound(formKey)
	}
	ref, ok := r.doc.Components.Schemas[formKey]
	if !ok || ref == nil || ref.Value == nil {
		return model.FormConfig{}, config.NotFound(formKey)
	}

	schema := ref.Value
	title := schema.Title
	if title == "" {
		title = formKey
	}
	return model.FormConfig{
		Key:       formKey,
		ModelName: r.modelPrefix + formKey,
		Title:     title,
		Content:   r.nodes(schema, ""),
	}, nil
}

func (r *Resolver) nodes(schema *openapi3.Schema, prefix string) []model.Node {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	orders := make(map[string]int, len(names))
	for _, name := range names {
		orders[name] = propertyOrder(schema.Properties[name])
	}
	sort.SliceStable(names, func(i, j int) bool {
		if orders[names[i]] != orders[names[j]] {
			return orders[names[i]] < orders[names[j]]
		}
		return names[i] < names[j]
	})

	out := make([]model.Node, 0, len(names))
	for idx, name := range names {
		prop := schema.Properties[name]
		if prop == nil || prop.Value == nil {
			r.log.V(1).Info("skipping unresolved property", "property", prefix+name)
			continue
		}
		key := prefix + name
		order := idx + 1

		if hasType(prop.Value, "object") && len(prop.Value.Properties) > 0 {
			out = append(out, model.PanelNode(model.Panel{
				Key:      key,
				Order:    order,
				Title:    label(prop.Value, name),
				Children: r.nodes(prop.Value, key+"."),
			}))
			continue
		}

		_, isRequired := required[name]
		out = append(out, model.FieldNode(model.Field{
			Key:      key,
			Order:    order,
			Label:    label(prop.Value, name),
			Type:     fieldType(prop.Value),
			HelpText: prop.Value.Description,
			Readonly: prop.Value.ReadOnly,
			Rules:    rules(prop.Value, isRequired),
		}))
	}
	return out
}

func label(schema *openapi3.Schema, fallback string) string {
	if v, ok := schema.Extensions[ExtensionLabel].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if schema.Title != "" {
		return schema.Title
	}
	return fallback
}

func fieldType(schema *openapi3.Schema) model.FieldType {
	switch {
	case hasType(schema, "integer"):
		return model.FieldTypeInteger
	case hasType(schema, "number"):
		return model.FieldTypeNumber
	case hasType(schema, "boolean"):
		return model.FieldTypeBoolean
	case hasType(schema, "object"):
		return model.FieldTypeObject
	case schema.Format == "date" || schema.Format == "date-time":
		return model.FieldTypeDate
	default:
		return model.FieldTypeString
	}
}

func hasType(schema *openapi3.Schema, want string) bool {
	if schema == nil || schema.Type == nil {
		return false
	}
	for _, typ := range schema.Type.Slice() {
		if typ == want {
			return true
		}
	}
	return false
}

func rules(schema *openapi3.Schema, required bool) []model.ValidationRule {
	var out []model.ValidationRule
	if required {
		out = append(out, model.ValidationRule{Kind: model.ValidationRuleRequired})
	}
	if schema.MinLength > 0 {
		out = append(out, valueRule(model.ValidationRuleMinLength, strconv.FormatUint(schema.MinLength, 10), false))
	}
	if schema.MaxLength != nil {
		out = append(out, valueRule(model.ValidationRuleMaxLength, strconv.FormatUint(*schema.MaxLength, 10), false))
	}
	if schema.Min != nil {
		out = append(out, valueRule(model.ValidationRuleMin, formatFloat(*schema.Min), schema.ExclusiveMin))
	}
	if schema.Max != nil {
		out = append(out, valueRule(model.ValidationRuleMax, formatFloat(*schema.Max), schema.ExclusiveMax))
	}
	if schema.Pattern != "" {
		out = append(out, model.ValidationRule{
			Kind:   model.ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
	return out
}

func valueRule(kind, value string, exclusive bool) model.ValidationRule {
	params := map[string]string{"value": value}
	if exclusive {
		params["exclusive"] = "true"
	}
	return model.ValidationRule{Kind: kind, Params: params}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// propertyOrder reads x-formview-order; properties without it sort last.
func propertyOrder(ref *openapi3.SchemaRef) int {
	const unordered = int(^uint(0) >> 1)
	if ref == nil || ref.Value == nil {
		return unordered
	}
	switch v := ref.Value.Extensions[ExtensionOrder].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return unordered
}
