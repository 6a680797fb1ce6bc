package render

import (
	"sort"
	"strings"
)

// ErrorMapping splits validation messages into field-level and form-level
// buckets.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrors attaches messages to the field nodes of tree and returns whatever
// could not be placed as form-level messages. Messages keyed by a field that
// is not rendered are kept at form level so nothing is lost.
func MapErrors(tree *Tree, mapping ErrorMapping) []string {
	form := append([]string(nil), mapping.Form...)
	placed := make(map[string]struct{}, len(mapping.Fields))
	if tree != nil {
		attachErrors(tree.Nodes, mapping.Fields, placed)
	}

	var orphans []string
	for key := range mapping.Fields {
		if _, ok := placed[key]; !ok {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	for _, key := range orphans {
		for _, msg := range mapping.Fields[key] {
			form = append(form, key+": "+msg)
		}
	}
	return normalizeMessages(form)
}

func attachErrors(nodes []ViewNode, fields map[string][]string, placed map[string]struct{}) {
	for i := range nodes {
		node := &nodes[i]
		if node.IsPanel() {
			attachErrors(node.Children, fields, placed)
			continue
		}
		if messages := normalizeMessages(fields[node.Key]); len(messages) > 0 {
			node.Errors = messages
			placed[node.Key] = struct{}{}
		}
	}
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
