package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/debounce"
)

type recorder struct {
	mu     sync.Mutex
	starts []string
	ends   []string
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 8)}
}

func (r *recorder) start(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, v)
}

func (r *recorder) end(v string) {
	r.mu.Lock()
	r.ends = append(r.ends, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.starts...), append([]string(nil), r.ends...)
}

func TestStartEndFlush(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := debounce.StartEnd(rec.start, time.Hour, rec.end)

	d.Call("a")
	d.Call("b")
	d.Call("c")
	if !d.Pending() {
		t.Fatalf("expected burst in progress")
	}
	d.Flush()

	starts, ends := rec.snapshot()
	if diff := cmp.Diff([]string{"a"}, starts); diff != "" {
		t.Fatalf("starts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, ends); diff != "" {
		t.Fatalf("ends mismatch (-want +got):\n%s", diff)
	}

	d.Call("d")
	d.Flush()
	starts, ends = rec.snapshot()
	if diff := cmp.Diff([]string{"a", "d"}, starts); diff != "" {
		t.Fatalf("second burst starts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "d"}, ends); diff != "" {
		t.Fatalf("second burst ends mismatch (-want +got):\n%s", diff)
	}

	d.Flush()
	if _, ends := rec.snapshot(); len(ends) != 2 {
		t.Fatalf("flush without a burst must not call end")
	}
}

func TestStartEndCancel(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := debounce.StartEnd(rec.start, time.Hour, rec.end)

	d.Call("a")
	d.Cancel()
	d.Flush()
	if d.Pending() {
		t.Fatalf("expected burst to end on cancel")
	}
	if _, ends := rec.snapshot(); len(ends) != 0 {
		t.Fatalf("expected no trailing call after cancel, got %v", ends)
	}

	d.Call("b")
	d.Flush()
	starts, _ := rec.snapshot()
	if diff := cmp.Diff([]string{"a", "b"}, starts); diff != "" {
		t.Fatalf("starts mismatch (-want +got):\n%s", diff)
	}
}

func TestStartEndTimer(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := debounce.StartEnd(rec.start, 10*time.Millisecond, rec.end)
	d.Call("x")
	d.Call("y")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("trailing call never fired")
	}
	starts, ends := rec.snapshot()
	if diff := cmp.Diff([]string{"x"}, starts); diff != "" {
		t.Fatalf("starts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y"}, ends); diff != "" {
		t.Fatalf("ends mismatch (-want +got):\n%s", diff)
	}
}

func TestStartEndReusesStart(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var calls []int
	d := debounce.StartEnd(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, v)
	}, time.Hour, nil)
	d.Call(1)
	d.Call(2)
	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]int{1, 2}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStartEndOrdersSlowStart(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	ended := make(chan struct{}, 1)
	d := debounce.StartEnd(func(v string) {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "start:"+v)
	}, 0, func(v string) {
		mu.Lock()
		order = append(order, "end:"+v)
		mu.Unlock()
		ended <- struct{}{}
	})

	d.Call("a")

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatalf("trailing call never fired")
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"start:a", "end:a"}, order); diff != "" {
		t.Fatalf("callback order mismatch (-want +got):\n%s", diff)
	}
}
