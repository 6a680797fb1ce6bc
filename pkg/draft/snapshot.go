package draft

import (
	"encoding/json"
	"reflect"

	"github.com/goliatone/go-formview/pkg/model"
)

// Fingerprint returns a structural snapshot of the draft. Map keys are
// serialised in sorted order so equal drafts yield equal fingerprints. A nil
// draft fingerprints like an empty one.
func Fingerprint(d model.Draft) (string, error) {
	if d == nil {
		d = model.Draft{}
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Equal compares two drafts by structural snapshot. When either side cannot
// be serialised (channels, funcs, cyclic values) it falls back to identity.
func Equal(a, b model.Draft) bool {
	left, errA := Fingerprint(a)
	right, errB := Fingerprint(b)
	if errA != nil || errB != nil {
		return Same(a, b)
	}
	return left == right
}

// Identical reports whether two values are the same in the strict sense:
// comparable values compare with ==, reference types (maps, slices, funcs,
// pointers, channels) compare by address.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if ta.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	return safeEqual(a, b)
}

// safeEqual guards == against structs/arrays holding non-comparable dynamic
// values, which panic at runtime.
func safeEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// Same reports whether a and b are the same map. Two empty or nil drafts
// count as the same.
func Same(a, b model.Draft) bool {
	if a == nil || b == nil {
		return len(a) == 0 && len(b) == 0
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Clone deep-copies nested plain structures (maps and slices of any).
func Clone(d model.Draft) model.Draft {
	if d == nil {
		return nil
	}
	out := make(model.Draft, len(d))
	for k, v := range d {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case model.Draft:
		return Clone(typed)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
