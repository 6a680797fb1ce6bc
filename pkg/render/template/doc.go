// Package template defines the template engine seam used by markup renderers.
// Engines live in sub-packages; pongo provides the default pongo2 backend.
package template
