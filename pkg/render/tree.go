package render

import (
	"github.com/goliatone/go-formview/pkg/model"
)

// State describes whether a tree carries content or a terminal message.
type State string

const (
	StateReady               State = "ready"
	StateNotFound            State = "not_found"
	StateMissingCreateAccess State = "missing_create_access"
)

// Message keys used for terminal states. Renderers localise them through the
// configured Translator.
const (
	MessageFormNotFound        = "Base_FormNotFound"
	MessageMissingCreateAccess = "Base_FormMissingCreateAccess"
)

// ViewNode is the renderable projection of a content node. Field nodes carry
// the draft value; panel nodes carry children.
type ViewNode struct {
	Kind        model.NodeKind  `json:"kind"`
	Key         string          `json:"key"`
	Label       string          `json:"label,omitempty"`
	Type        model.FieldType `json:"type,omitempty"`
	Value       any             `json:"value,omitempty"`
	Readonly    bool            `json:"readonly"`
	Required    bool            `json:"required,omitempty"`
	HelpText    string          `json:"helpText,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
	Children    []ViewNode      `json:"children,omitempty"`
}

// IsPanel reports whether the node is a container.
func (n ViewNode) IsPanel() bool {
	return n.Kind == model.NodePanel
}

// Tree is the dispatcher output. Terminal trees have no nodes.
type Tree struct {
	State      State      `json:"state"`
	MessageKey string     `json:"messageKey,omitempty"`
	Message    string     `json:"message,omitempty"`
	Nodes      []ViewNode `json:"nodes,omitempty"`
}

// Ready reports whether the tree carries content.
func (t Tree) Ready() bool {
	return t.State == StateReady
}

// Terminal returns the content-free tree for a terminal state.
func Terminal(state State) Tree {
	switch state {
	case StateNotFound:
		return Tree{State: state, MessageKey: MessageFormNotFound}
	case StateMissingCreateAccess:
		return Tree{State: state, MessageKey: MessageMissingCreateAccess}
	default:
		return Tree{State: StateReady}
	}
}

// Walk visits every node depth first in tree order. Returning false from fn
// stops descent into that node's children.
func (t Tree) Walk(fn func(node ViewNode) bool) {
	walkNodes(t.Nodes, fn)
}

func walkNodes(nodes []ViewNode, fn func(node ViewNode) bool) {
	for _, node := range nodes {
		if !fn(node) {
			continue
		}
		if len(node.Children) > 0 {
			walkNodes(node.Children, fn)
		}
	}
}

// View bundles everything a Renderer needs to draw one session.
type View struct {
	FormKey    string             `json:"formKey"`
	Title      string             `json:"title,omitempty"`
	Locale     string             `json:"locale,omitempty"`
	Tree       Tree               `json:"tree"`
	Actions    []model.Descriptor `json:"actions,omitempty"`
	FormErrors []string           `json:"formErrors,omitempty"`
	Readonly   bool               `json:"readonly"`
	Dirty      bool               `json:"dirty"`
	Creation   bool               `json:"creation"`
	Hidden     []HiddenField      `json:"hidden,omitempty"`
}
