package rule

import (
	"fmt"
	"strconv"
	"strings"
)

func (s scope) lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}

	head, rest, _ := strings.Cut(path, ".")
	switch strings.ToLower(head) {
	case "auth":
		return lookupPath(s.ext.Auth, rest)
	case "user":
		return lookupPath(s.ext.User, rest)
	case "record":
		return lookupPath(s.ext.Record, rest)
	case "extras":
		return lookupPath(s.ext.Extras, rest)
	}
	return lookupPath(s.draft, path)
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		var next any
		var ok bool
		switch typed := current.(type) {
		case map[string]any:
			next, ok = typed[part]
		case map[string]string:
			next, ok = typed[part]
		case []any:
			idx, err := strconv.Atoi(part)
			if err == nil && idx >= 0 && idx < len(typed) {
				next, ok = typed[idx], true
			}
		}
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := asNumber(value); ok {
		return n != 0
	}
	return true
}

func asBool(value any) bool {
	if s, ok := value.(string); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
