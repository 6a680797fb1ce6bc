// Package config resolves form configurations by key, from an in-memory
// registry or from declarative YAML/JSON documents.
package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formview/pkg/model"
)

// ErrFormNotFound reports that no configuration exists for a form key.
var ErrFormNotFound = errors.New("config: form not found")

// Resolver looks up the configuration for a form key. Implementations return
// an error wrapping ErrFormNotFound for unknown keys.
type Resolver interface {
	Resolve(ctx context.Context, formKey string) (model.FormConfig, error)
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(ctx context.Context, formKey string) (model.FormConfig, error)

// Resolve delegates to the underlying function.
func (fn ResolverFunc) Resolve(ctx context.Context, formKey string) (model.FormConfig, error) {
	return fn(ctx, formKey)
}

// NotFound wraps ErrFormNotFound with the offending key.
func NotFound(formKey string) error {
	return fmt.Errorf("%w: %q", ErrFormNotFound, formKey)
}

// Registry is a concurrency-safe in-memory Resolver.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]model.FormConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]model.FormConfig)}
}

var _ Resolver = (*Registry)(nil)

// Register adds cfg under cfg.Key. Duplicate keys return an error.
func (r *Registry) Register(cfg model.FormConfig) error {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return fmt.Errorf("config: form key is required")
	}
	for _, node := range cfg.Content {
		if err := node.Validate(); err != nil {
			return fmt.Errorf("config: form %q: %w", key, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forms == nil {
		r.forms = make(map[string]model.FormConfig)
	}
	if _, exists := r.forms[key]; exists {
		return fmt.Errorf("config: form %q already registered", key)
	}
	cfg.Key = key
	r.forms[key] = cfg
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(cfg model.FormConfig) {
	if err := r.Register(cfg); err != nil {
		panic(err)
	}
}

// Resolve returns the configuration registered under formKey.
func (r *Registry) Resolve(ctx context.Context, formKey string) (model.FormConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.FormConfig{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.forms[strings.TrimSpace(formKey)]
	if !ok {
		return model.FormConfig{}, NotFound(formKey)
	}
	return cfg, nil
}

// List returns the registered form keys, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.forms))
	for key := range r.forms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether formKey is registered.
func (r *Registry) Has(formKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.forms[strings.TrimSpace(formKey)]
	return ok
}

// Chain tries each resolver in order and returns the first configuration
// found. Errors other than ErrFormNotFound stop the chain.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, formKey string) (model.FormConfig, error) {
		for _, resolver := range resolvers {
			if resolver == nil {
				continue
			}
			cfg, err := resolver.Resolve(ctx, formKey)
			if err == nil {
				return cfg, nil
			}
			if !errors.Is(err, ErrFormNotFound) {
				return model.FormConfig{}, err
			}
		}
		return model.FormConfig{}, NotFound(formKey)
	})
}
