package tui

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/pkg/render"
)

// Theme captures optional message prefixes applied to informational output.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver used by the filler.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithTranslator localizes prompt labels through labelKey/helpKey hints.
func WithTranslator(locale string, translator render.Translator) Option {
	return func(f *Filler) {
		f.locale = locale
		f.translator = translator
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// WithMaxAttempts bounds how many times Run re-prompts an invalid form.
// Zero means ask the user after every failed attempt.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		if n >= 0 {
			f.maxAttempts = n
		}
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}
