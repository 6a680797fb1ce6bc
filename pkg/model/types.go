package model

import (
	"context"
	"fmt"
)

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeObject  FieldType = "object"
)

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds and length limits encode their threshold in Params["value"]
// while pattern rules keep the expression in Params["pattern"]. An optional
// Params["message"] overrides the default message.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Draft is the in-progress record under edit.
type Draft map[string]any

// ExternalContext is the read-only slice of ambient state that predicates and
// derivations may inspect.
type ExternalContext struct {
	Auth   map[string]any
	User   map[string]any
	Record map[string]any
	Extras map[string]any
}

// Predicate evaluates a condition against the draft and external context.
type Predicate func(draft Draft, ext ExternalContext) (bool, error)

// DerivationInput carries the arguments handed to a Derivation.
type DerivationInput struct {
	NewValue any
	Draft    Draft
	External ExternalContext
}

// Derivation computes a dependent field value after another field changed.
type Derivation func(in DerivationInput) (any, error)

// NodeKind tags a content node.
type NodeKind string

const (
	NodeField NodeKind = "field"
	NodePanel NodeKind = "panel"
)

// Field describes an editable control bound to Draft[Key].
type Field struct {
	Key         string
	Order       int
	Label       string
	Type        FieldType
	HelpText    string
	Placeholder string
	Readonly    bool
	// DependsOn maps the key of another field to the derivation that recomputes
	// this field when that key changes.
	DependsOn map[string]Derivation
	Rules     []ValidationRule
}

// Panel groups nested content nodes.
type Panel struct {
	Key      string
	Order    int
	Title    string
	Children []Node
}

// Node is a tagged union holding either a Field or a Panel.
type Node struct {
	Kind  NodeKind
	Field *Field
	Panel *Panel
}

// FieldNode wraps a field into a content node.
func FieldNode(field Field) Node {
	return Node{Kind: NodeField, Field: &field}
}

// PanelNode wraps a panel into a content node.
func PanelNode(panel Panel) Node {
	return Node{Kind: NodePanel, Panel: &panel}
}

// Key returns the key of the wrapped field or panel.
func (n Node) Key() string {
	switch {
	case n.Kind == NodeField && n.Field != nil:
		return n.Field.Key
	case n.Kind == NodePanel && n.Panel != nil:
		return n.Panel.Key
	default:
		return ""
	}
}

// Order returns the sort order of the wrapped field or panel.
func (n Node) Order() int {
	switch {
	case n.Kind == NodeField && n.Field != nil:
		return n.Field.Order
	case n.Kind == NodePanel && n.Panel != nil:
		return n.Panel.Order
	default:
		return 0
	}
}

// Validate reports malformed nodes (missing payload or key).
func (n Node) Validate() error {
	switch n.Kind {
	case NodeField:
		if n.Field == nil || n.Field.Key == "" {
			return fmt.Errorf("model: field node requires a key")
		}
	case NodePanel:
		if n.Panel == nil || n.Panel.Key == "" {
			return fmt.Errorf("model: panel node requires a key")
		}
		for _, child := range n.Panel.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("model: panel %q: %w", n.Panel.Key, err)
			}
		}
	default:
		return fmt.Errorf("model: unknown node kind %q", n.Kind)
	}
	return nil
}

// FormConfig is the immutable configuration resolved for a form key.
type FormConfig struct {
	Key        string
	ModelName  string
	Title      string
	Content    []Node
	ReadonlyIf Predicate
	Actions    []Action
}

// Fields flattens the content tree in declaration order.
func (c FormConfig) Fields() []Field {
	var out []Field
	collectFields(c.Content, &out)
	return out
}

// Field looks up a declared field by key.
func (c FormConfig) Field(key string) (Field, bool) {
	for _, field := range c.Fields() {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}

func collectFields(nodes []Node, dest *[]Field) {
	for _, node := range nodes {
		switch node.Kind {
		case NodeField:
			if node.Field != nil {
				*dest = append(*dest, *node.Field)
			}
		case NodePanel:
			if node.Panel != nil {
				collectFields(node.Panel.Children, dest)
			}
		}
	}
}

// ActionType classifies actions for authorization.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
	ActionCustom ActionType = "custom"
)

// Effect is the side-effecting body of an action.
type Effect func(ctx context.Context, draft Draft) error

// DescribeFunc resolves a display descriptor for an action. When nil, the
// static fields on Action are used.
type DescribeFunc func(action Action, draft Draft, ext ExternalContext) (Descriptor, error)

// Action is a declarative, user-triggerable operation.
type Action struct {
	Key   string
	Type  ActionType
	Title string
	Icon  string
	Color string

	HideIf   Predicate
	Disabled Predicate
	Describe DescribeFunc
	Effect   Effect

	NeedValidation      bool
	ReadonlyAfterAction bool
}

// Descriptor is the resolved display view of an action.
type Descriptor struct {
	Key                 string     `json:"key"`
	Type                ActionType `json:"type"`
	Title               string     `json:"title"`
	Icon                string     `json:"icon,omitempty"`
	Color               string     `json:"color,omitempty"`
	Disabled            bool       `json:"disabled,omitempty"`
	NeedValidation      bool       `json:"needValidation,omitempty"`
	ReadonlyAfterAction bool       `json:"readonlyAfterAction,omitempty"`
}
