package render

import (
	"strings"

	"github.com/goliatone/go-formulate/pkg/localize"
)

// TemplateI18nConfig configures template-level translation helpers.
type TemplateI18nConfig struct {
	// Locale is the language templates render in.
	Locale string
	// Labels resolves category names (tree, layout, menu item, ...) for the
	// "label" helper. Nil makes the helper echo the namespaced key.
	Labels *localize.Accessor
	// OnMissing controls the string returned when a translation is missing.
	OnMissing MissingTranslationHandler
}

// TemplateI18nFuncs returns helpers for the pongo2 engine used by the html
// renderer:
//
//	translate(key, ...args) string
//	label(category, name) string
//	current_locale() string
func TemplateI18nFuncs(t Translator, cfg TemplateI18nConfig) map[string]any {
	onMissing := cfg.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	locale := strings.TrimSpace(cfg.Locale)

	return map[string]any{
		"translate": func(key string, params ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			if t == nil {
				return onMissing(locale, key, params, ErrMissingTranslator)
			}
			msg, err := t.Translate(locale, key, params...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(locale, key, params, err)
			}
			return msg
		},
		"label": func(category, name string) string {
			return cfg.Labels.Name(localize.Category(strings.TrimSpace(category)), name)
		},
		"current_locale": func() string {
			return locale
		},
	}
}
