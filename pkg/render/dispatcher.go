package render

import (
	"sort"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/model"
)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger routes readonly predicate failures to log.
func WithLogger(log logr.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// Dispatcher turns a content tree into the renderable view tree.
type Dispatcher struct {
	log logr.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(options ...Option) *Dispatcher {
	d := &Dispatcher{log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Render projects content against draft. Siblings are ordered by ascending
// Order with declaration order breaking ties; panels recurse with the same
// readonly resolution.
func (d *Dispatcher) Render(content []model.Node, draft model.Draft, policy ReadonlyPolicy, ext model.ExternalContext) Tree {
	readonly, err := policy.Resolve(draft, ext)
	if err != nil {
		d.log.Error(err, "readonly predicate failed, rendering readonly")
	}
	return Tree{
		State: StateReady,
		Nodes: d.nodes(content, draft, readonly),
	}
}

func (d *Dispatcher) nodes(content []model.Node, draft model.Draft, readonly bool) []ViewNode {
	if len(content) == 0 {
		return nil
	}

	ordered := make([]model.Node, 0, len(content))
	for _, node := range content {
		if err := node.Validate(); err != nil {
			d.log.Error(err, "skipping malformed content node")
			continue
		}
		ordered = append(ordered, node)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order() < ordered[j].Order()
	})

	out := make([]ViewNode, 0, len(ordered))
	for _, node := range ordered {
		switch node.Kind {
		case model.NodeField:
			out = append(out, fieldView(*node.Field, draft, readonly))
		case model.NodePanel:
			out = append(out, ViewNode{
				Kind:     model.NodePanel,
				Key:      node.Panel.Key,
				Label:    node.Panel.Title,
				Readonly: readonly,
				Children: d.nodes(node.Panel.Children, draft, readonly),
			})
		}
	}
	return out
}

func fieldView(field model.Field, draft model.Draft, readonly bool) ViewNode {
	label := field.Label
	if label == "" {
		label = field.Key
	}
	return ViewNode{
		Kind:        model.NodeField,
		Key:         field.Key,
		Label:       label,
		Type:        field.Type,
		Value:       draft[field.Key],
		Readonly:    readonly || field.Readonly,
		Required:    hasRule(field.Rules, model.ValidationRuleRequired),
		HelpText:    field.HelpText,
		Placeholder: field.Placeholder,
	}
}

func hasRule(rules []model.ValidationRule, kind string) bool {
	for _, rule := range rules {
		if rule.Kind == kind {
			return true
		}
	}
	return false
}
