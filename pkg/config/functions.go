package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/rule"
)

// Built-in function names available to every document.
const (
	DerivationClear = "clear"
	DerivationCopy  = "copy"
	EffectNoop      = "noop"
)

// Functions holds the named derivations, predicates and effects that form
// documents reference. Predicates that are not registered by name compile
// as rule expressions.
type Functions struct {
	mu          sync.RWMutex
	derivations map[string]model.Derivation
	predicates  map[string]model.Predicate
	effects     map[string]model.Effect
}

// NewFunctions returns a set seeded with the built-ins.
func NewFunctions() *Functions {
	f := &Functions{
		derivations: make(map[string]model.Derivation),
		predicates:  make(map[string]model.Predicate),
		effects:     make(map[string]model.Effect),
	}
	f.derivations[DerivationClear] = func(model.DerivationInput) (any, error) { return nil, nil }
	f.derivations[DerivationCopy] = func(in model.DerivationInput) (any, error) { return in.NewValue, nil }
	f.effects[EffectNoop] = func(context.Context, model.Draft) error { return nil }
	return f
}

// RegisterDerivation adds a named derivation.
func (f *Functions) RegisterDerivation(name string, fn model.Derivation) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("config: derivation name and function are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.derivations[name]; exists {
		return fmt.Errorf("config: derivation %q already registered", name)
	}
	f.derivations[name] = fn
	return nil
}

// RegisterPredicate adds a named predicate.
func (f *Functions) RegisterPredicate(name string, fn model.Predicate) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("config: predicate name and function are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.predicates[name]; exists {
		return fmt.Errorf("config: predicate %q already registered", name)
	}
	f.predicates[name] = fn
	return nil
}

// RegisterEffect adds a named action effect.
func (f *Functions) RegisterEffect(name string, fn model.Effect) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("config: effect name and function are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.effects[name]; exists {
		return fmt.Errorf("config: effect %q already registered", name)
	}
	f.effects[name] = fn
	return nil
}

// Derivation looks up a named derivation.
func (f *Functions) Derivation(name string) (model.Derivation, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.derivations[strings.TrimSpace(name)]
	return fn, ok
}

// Effect looks up a named effect.
func (f *Functions) Effect(name string) (model.Effect, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.effects[strings.TrimSpace(name)]
	return fn, ok
}

// Predicate returns the predicate registered under expr, or compiles expr as
// a rule expression. An empty expression yields nil.
func (f *Functions) Predicate(expr string) (model.Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	f.mu.RLock()
	fn, ok := f.predicates[expr]
	f.mu.RUnlock()
	if ok {
		return fn, nil
	}
	return rule.Compile(expr)
}
