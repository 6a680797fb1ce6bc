package render

import (
	"github.com/goliatone/go-formview/internal/safe"
	"github.com/goliatone/go-formview/pkg/model"
)

// ReadonlyPolicy decides whether the content is shown as readonly. The
// session flag wins; otherwise the conditional predicate is consulted.
type ReadonlyPolicy struct {
	Session     bool
	Conditional model.Predicate
}

// Resolve evaluates the policy. A failing predicate resolves to readonly and
// the failure is returned so the caller can report it.
func (p ReadonlyPolicy) Resolve(draft model.Draft, ext model.ExternalContext) (bool, error) {
	if p.Session {
		return true, nil
	}
	if p.Conditional == nil {
		return false, nil
	}
	cond := p.Conditional
	res := safe.Call(func() (bool, error) { return cond(draft, ext) })
	if !res.OK() {
		return true, res.Err
	}
	return res.Value, nil
}
