// Package model defines the declarative form configuration consumed by a form
// session. A FormConfig is an ordered tree of content nodes (fields and
// panels) plus a model name used for permission lookups. Fields may declare
// derivations keyed by the field they depend on, and validation rules that use
// canonical identifiers (required, min/max, minLength/maxLength, pattern) with
// string parameters. Actions describe user-triggerable operations together
// with their visibility predicate and pre-validation/readonly flags.
//
// Dynamic behaviour (hide/readonly predicates, dependency derivations) is
// expressed through the Predicate and Derivation function types, which always
// receive the draft and the ExternalContext explicitly.
package model
