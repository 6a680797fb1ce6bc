package render

import (
	"errors"
	"strings"
)

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler picks the string shown when a key cannot be
// translated. fallback is the text declared in configuration, if any.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

// ErrMissingTranslator reports localisation attempted without a Translator.
var ErrMissingTranslator = errors.New("render: translator not configured")

// LocalizeOptions configure Localize.
type LocalizeOptions struct {
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

var defaultTerminalMessages = map[string]string{
	MessageFormNotFound:        "Form not found",
	MessageMissingCreateAccess: "You are not allowed to create this record",
}

// Localize rewrites labels, help text, placeholders and the terminal message
// of view in place. Configured text doubles as the translation key; when no
// translation exists the configured text is kept.
func Localize(view *View, opts LocalizeOptions) {
	if view == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	view.Locale = opts.Locale
	if view.Title != "" {
		view.Title = tr(view.Title, view.Title)
	}
	if key := view.Tree.MessageKey; key != "" {
		view.Tree.Message = tr(key, defaultTerminalMessages[key])
	}
	localizeNodes(view.Tree.Nodes, tr)
}

func localizeNodes(nodes []ViewNode, tr func(key, fallback string) string) {
	for i := range nodes {
		node := &nodes[i]
		if node.Label != "" {
			node.Label = tr(node.Label, node.Label)
		}
		if node.HelpText != "" {
			node.HelpText = tr(node.HelpText, node.HelpText)
		}
		if node.Placeholder != "" {
			node.Placeholder = tr(node.Placeholder, node.Placeholder)
		}
		localizeNodes(node.Children, tr)
	}
}

// Translate resolves key with t, falling back to fallback and then to key.
func Translate(locale, key, fallback string, t Translator) string {
	return translate(locale, key, fallback, t, missingTranslationDefault)
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if t == nil {
		return onMissing(locale, key, fallback, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, fallback, err)
}

func missingTranslationDefault(_, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}
