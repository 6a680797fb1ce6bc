package validation

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is a single validation message. An empty FieldKey marks a
// form-level message.
type FieldError struct {
	FieldKey string `json:"fieldKey"`
	Message  string `json:"message"`
}

// Errors is the ordered list of validation failures surfaced to the user.
type Errors []FieldError

// Error summarises the first few entries.
func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	b.WriteString("validation: ")
	for i, item := range e {
		if i == maxShown {
			fmt.Fprintf(b, "; ... (total %d)", len(e))
			break
		}
		if i > 0 {
			b.WriteString("; ")
		}
		if item.FieldKey == "" {
			b.WriteString(item.Message)
			continue
		}
		fmt.Fprintf(b, "%s: %s", item.FieldKey, item.Message)
	}
	return b.String()
}

// ByField groups messages by field key, preserving order. Form-level messages
// are returned separately.
func (e Errors) ByField() (map[string][]string, []string) {
	fields := make(map[string][]string)
	var form []string
	for _, item := range e {
		if item.FieldKey == "" {
			form = append(form, item.Message)
			continue
		}
		fields[item.FieldKey] = append(fields[item.FieldKey], item.Message)
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, form
}

// ErrorsFrom extracts the structured list from err. Errors that do not carry
// a list become a single form-level entry; ok is false when err is nil.
func ErrorsFrom(err error) (Errors, bool) {
	if err == nil {
		return nil, false
	}
	var list Errors
	if errors.As(err, &list) {
		return Normalize(list), true
	}
	var single FieldError
	if errors.As(err, &single) {
		return Normalize(Errors{single}), true
	}
	return Errors{{Message: strings.TrimSpace(err.Error())}}, true
}

// Error lets a lone FieldError travel as an error.
func (f FieldError) Error() string {
	if f.FieldKey == "" {
		return f.Message
	}
	return f.FieldKey + ": " + f.Message
}

// Normalize trims messages, drops empty entries and removes duplicates while
// preserving order.
func Normalize(list Errors) Errors {
	if len(list) == 0 {
		return nil
	}
	out := make(Errors, 0, len(list))
	seen := make(map[FieldError]struct{}, len(list))
	for _, item := range list {
		item.FieldKey = strings.TrimSpace(item.FieldKey)
		item.Message = strings.TrimSpace(item.Message)
		if item.Message == "" {
			continue
		}
		if _, exists := seen[item]; exists {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
