// Package validation checks drafts before actions run and carries the
// structured error list shown to the user.
package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-formview/pkg/model"
)

// Validator checks a draft against a form configuration. Failures are
// reported as an Errors value (or any error wrapping one).
type Validator interface {
	Validate(ctx context.Context, cfg model.FormConfig, draft model.Draft) error
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(ctx context.Context, cfg model.FormConfig, draft model.Draft) error

// Validate delegates to the underlying function.
func (fn ValidatorFunc) Validate(ctx context.Context, cfg model.FormConfig, draft model.Draft) error {
	return fn(ctx, cfg, draft)
}

// RuleValidator evaluates the ValidationRules declared on each field, in
// field declaration order.
type RuleValidator struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewRuleValidator constructs a RuleValidator.
func NewRuleValidator() *RuleValidator {
	return &RuleValidator{patterns: make(map[string]*regexp.Regexp)}
}

var _ Validator = (*RuleValidator)(nil)

// Validate returns nil or an Errors value listing every failed rule.
func (v *RuleValidator) Validate(ctx context.Context, cfg model.FormConfig, draft model.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var out Errors
	for _, field := range cfg.Fields() {
		value, present := draft[field.Key]
		for _, rule := range field.Rules {
			if msg, failed := v.check(rule, value, present); failed {
				if custom := strings.TrimSpace(rule.Params["message"]); custom != "" {
					msg = custom
				}
				out = append(out, FieldError{FieldKey: field.Key, Message: msg})
			}
		}
	}

	if out = Normalize(out); len(out) > 0 {
		return out
	}
	return nil
}

func (v *RuleValidator) check(rule model.ValidationRule, value any, present bool) (string, bool) {
	switch rule.Kind {
	case model.ValidationRuleRequired:
		if !present || isEmpty(value) {
			return "required", true
		}
		return "", false
	}

	// Optional fields only run the remaining rules when they carry a value.
	if !present || isEmpty(value) {
		return "", false
	}

	switch rule.Kind {
	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
		limit, err := strconv.Atoi(strings.TrimSpace(rule.Params["value"]))
		if err != nil {
			return fmt.Sprintf("invalid %s rule", rule.Kind), true
		}
		length := lengthOf(value)
		if rule.Kind == model.ValidationRuleMinLength && length < limit {
			return fmt.Sprintf("must be at least %d characters", limit), true
		}
		if rule.Kind == model.ValidationRuleMaxLength && length > limit {
			return fmt.Sprintf("must be at most %d characters", limit), true
		}
	case model.ValidationRuleMin, model.ValidationRuleMax:
		limit, err := strconv.ParseFloat(strings.TrimSpace(rule.Params["value"]), 64)
		if err != nil {
			return fmt.Sprintf("invalid %s rule", rule.Kind), true
		}
		number, ok := toFloat(value)
		if !ok {
			return "must be a number", true
		}
		exclusive := rule.Params["exclusive"] == "true"
		if rule.Kind == model.ValidationRuleMin && (number < limit || (exclusive && number == limit)) {
			return fmt.Sprintf("must be greater than %s", rule.Params["value"]), true
		}
		if rule.Kind == model.ValidationRuleMax && (number > limit || (exclusive && number == limit)) {
			return fmt.Sprintf("must be less than %s", rule.Params["value"]), true
		}
	case model.ValidationRulePattern:
		re, err := v.pattern(rule.Params["pattern"])
		if err != nil {
			return "invalid pattern rule", true
		}
		if !re.MatchString(fmt.Sprint(value)) {
			return "invalid format", true
		}
	}
	return "", false
}

func (v *RuleValidator) pattern(expr string) (*regexp.Regexp, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.patterns == nil {
		v.patterns = make(map[string]*regexp.Regexp)
	}
	if re, ok := v.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns[expr] = re
	return re, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func lengthOf(value any) int {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return utf8.RuneCountInString(fmt.Sprint(value))
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
