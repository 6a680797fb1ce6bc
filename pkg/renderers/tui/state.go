package tui

import (
	"sort"

	"github.com/goliatone/go-formview/pkg/draft"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
)

// State tracks the values collected during one prompt run and the errors the
// view carried in, both keyed by field key.
type State struct {
	values model.Draft
	errors map[string][]string
}

// NewState seeds values from the field nodes of tree.
func NewState(tree render.Tree) *State {
	s := &State{values: model.Draft{}, errors: map[string][]string{}}
	tree.Walk(func(node render.ViewNode) bool {
		if node.IsPanel() {
			return true
		}
		if node.Value != nil {
			s.values[node.Key] = node.Value
		}
		if len(node.Errors) > 0 {
			s.errors[node.Key] = append([]string(nil), node.Errors...)
		}
		return true
	})
	return s
}

// Values returns a copy of the collected values.
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return draft.Clone(s.values)
}

// ErrorsFor returns the errors attached to key.
func (s *State) ErrorsFor(key string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[key]
}

// GetValue returns the value stored for key.
func (s *State) GetValue(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores value for key and clears the errors it carried.
func (s *State) SetValue(key string, value any) {
	if s == nil {
		return
	}
	s.values[key] = value
	delete(s.errors, key)
}

// Replace adopts values wholesale, for example the draft after a cascade.
func (s *State) Replace(values model.Draft) {
	if s == nil || values == nil {
		return
	}
	s.values = draft.Clone(values)
}

// Keys returns value keys sorted alphabetically.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
