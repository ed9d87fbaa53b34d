package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formulate/pkg/model"
)

const (
	fieldLabelKeyHint       = "labelKey"
	fieldHelpKeyHint        = "helpKey"
	fieldPlaceholderKeyHint = "placeholderKey"
	fieldPlaceholderHint    = "placeholder"
)

// ErrMissingTranslator is passed to OnMissing when translation is requested
// without a Translator.
var ErrMissingTranslator = errors.New("render: translator is not configured")

// Translator resolves a key for a locale. localize.TextService satisfies it.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the text used when key cannot be
// translated. params[0] carries {"default": fallback} when a fallback exists.
type MissingTranslationHandler func(locale, key string, params []any, err error) string

func missingTranslationDefault(_ string, key string, params []any, _ error) string {
	if len(params) > 0 {
		if m, ok := params[0].(map[string]any); ok {
			if fallback, ok := m["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// LocalizeDefinition translates the labelKey, helpKey and placeholderKey
// hints of every field in place. Translation failures go through
// opts.OnMissing, which by default keeps the existing text.
func LocalizeDefinition(def *model.FormDefinition, opts RenderOptions) {
	if def == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	for i := range def.Fields {
		localizeField(&def.Fields[i], opts.Locale, opts.Translator, onMissing)
	}
}

func localizeField(field *model.FieldDefinition, locale string, t Translator, onMissing MissingTranslationHandler) {
	if field == nil || len(field.UIHints) == 0 {
		return
	}

	if key := strings.TrimSpace(field.UIHints[fieldLabelKeyHint]); key != "" {
		field.Label = translate(locale, key, strings.TrimSpace(field.Label), t, onMissing)
	}
	if key := strings.TrimSpace(field.UIHints[fieldHelpKeyHint]); key != "" {
		field.Help = translate(locale, key, strings.TrimSpace(field.Help), t, onMissing)
	}
	if key := strings.TrimSpace(field.UIHints[fieldPlaceholderKeyHint]); key != "" {
		hints := make(map[string]string, len(field.UIHints)+1)
		for k, v := range field.UIHints {
			hints[k] = v
		}
		hints[fieldPlaceholderHint] = translate(locale, key, strings.TrimSpace(hints[fieldPlaceholderHint]), t, onMissing)
		field.UIHints = hints
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	params := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, params, ErrMissingTranslator)
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, params, err)
}
