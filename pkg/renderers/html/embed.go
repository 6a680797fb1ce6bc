package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// FormTemplate is the entry template rendered for every view.
const FormTemplate = "templates/form.tmpl"

// TemplatesFS exposes the embedded template bundle so callers can start a
// custom theme from a copy of it.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
