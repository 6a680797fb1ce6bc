// Package orchestrator wires configuration resolution, optional config
// transforms, form sessions and the renderer registry behind a single entry
// point.
package orchestrator
