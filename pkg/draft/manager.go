package draft

import (
	"github.com/goliatone/go-formview/pkg/model"
)

// Option customises a Manager.
type Option func(*Manager)

// WithCreationCheck installs the predicate that decides whether the current
// draft represents a record that does not exist yet. Creation drafts are
// always dirty.
func WithCreationCheck(fn func(model.Draft) bool) Option {
	return func(m *Manager) {
		m.isCreation = fn
	}
}

// Manager owns the draft of a single form session and the baseline it is
// compared against. It is not safe for concurrent use; the owning session
// serialises access.
type Manager struct {
	current    model.Draft
	baseline   model.Draft
	isCreation func(model.Draft) bool
}

// New seeds the draft from the loaded record when it is non-empty, otherwise
// from the creation default, otherwise with an empty map.
func New(loaded, creationDefault model.Draft, options ...Option) *Manager {
	m := &Manager{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}

	switch {
	case len(loaded) > 0:
		m.current = loaded
		m.baseline = loaded
	case len(creationDefault) > 0:
		m.current = creationDefault
	default:
		m.current = model.Draft{}
	}
	return m
}

// Current returns the draft. Callers must treat it as read-only; updates go
// through SetDraft or MergeField.
func (m *Manager) Current() model.Draft {
	return m.current
}

// Baseline returns the last externally supplied record.
func (m *Manager) Baseline() model.Draft {
	return m.baseline
}

// SetDraft replaces the draft wholesale.
func (m *Manager) SetDraft(value model.Draft) {
	if value == nil {
		value = model.Draft{}
	}
	m.current = value
}

// SetBaseline replaces the comparison baseline without touching the draft.
func (m *Manager) SetBaseline(value model.Draft) {
	m.baseline = value
}

// Reset replaces the draft with the supplied value, or an empty map.
func (m *Manager) Reset(to model.Draft) {
	m.SetDraft(to)
}

// MergeField writes value at key using copy-on-write. When the stored value is
// identical the current map is returned untouched and changed is false.
func (m *Manager) MergeField(key string, value any) (model.Draft, bool) {
	next, changed := Merge(m.current, key, value)
	if changed {
		m.current = next
	}
	return m.current, changed
}

// IsCreation reports whether the draft is a new record.
func (m *Manager) IsCreation() bool {
	return m.isCreation != nil && m.isCreation(m.current)
}

// IsDirty reports whether the draft differs from the baseline. Creation
// drafts are always dirty.
func (m *Manager) IsDirty() bool {
	if m.IsCreation() {
		return true
	}
	return !Equal(m.current, m.baseline)
}

// Reconcile applies a record arriving from the external store. Empty records
// and records equal to the current baseline are ignored. A new record becomes
// the baseline; it replaces the draft when the session holds a creation draft
// or has no local edits. It reports whether the draft was replaced.
func (m *Manager) Reconcile(record model.Draft) bool {
	if len(record) == 0 {
		return false
	}
	if len(m.baseline) > 0 && Equal(record, m.baseline) {
		return false
	}

	creation := m.IsCreation()
	edited := !Equal(m.current, m.baseline)
	m.baseline = record

	if creation || !edited {
		m.current = record
		return true
	}
	return false
}

// Merge returns draft with key set to value. The input map is never mutated;
// when the stored value is identical the same map is returned.
func Merge(draft model.Draft, key string, value any) (model.Draft, bool) {
	if draft != nil {
		if existing, ok := draft[key]; ok && Identical(existing, value) {
			return draft, false
		}
	}
	next := make(model.Draft, len(draft)+1)
	for k, v := range draft {
		next[k] = v
	}
	next[key] = value
	return next, true
}
