package safe

import "fmt"

// Result holds either a value or the error produced while computing it.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Call invokes fn and captures its outcome. Panics are converted into errors
// so a misbehaving callback cannot unwind the caller.
func Call[T any](fn func() (T, error)) (res Result[T]) {
	if fn == nil {
		res.Err = fmt.Errorf("safe: callback is nil")
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = Result[T]{Value: zero, Err: fmt.Errorf("safe: callback panicked: %v", r)}
		}
	}()
	value, err := fn()
	return Result[T]{Value: value, Err: err}
}
