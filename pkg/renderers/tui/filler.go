// Package tui fills a form controller from the terminal. Each field is
// prompted according to its kind; the collected values are bound on the
// controller and submitted through its normal Submit path.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
	"github.com/goliatone/go-formulate/pkg/submission"
)

// Filler prompts for the values of a controller's form.
type Filler struct {
	driver      PromptDriver
	locale      string
	translator  render.Translator
	theme       Theme
	maxAttempts int
	logger      logrus.FieldLogger
	readFile    func(string) ([]byte, error)
}

// New constructs a Filler. Without WithPromptDriver it prompts on stdout
// through survey.
func New(options ...Option) *Filler {
	f := &Filler{readFile: os.ReadFile}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(os.Stdout)
	}
	if f.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		f.logger = discard
	}
	return f
}

// Fill prompts every promptable field of ctrl, using the currently bound
// values as defaults. Hidden, rich-text and button fields are skipped.
func (f *Filler) Fill(ctx context.Context, ctrl *controller.Controller) error {
	return f.fill(ctx, ctrl, nil)
}

// Run fills ctrl and submits it. When validation rejects the values, the
// problems are printed and only the offending fields are asked again.
func (f *Filler) Run(ctx context.Context, ctrl *controller.Controller) error {
	var only map[string]struct{}
	for attempt := 1; ; attempt++ {
		if err := f.fill(ctx, ctrl, only); err != nil {
			return err
		}

		err := ctrl.Submit(ctx)
		if !errors.Is(err, controller.ErrInvalid) {
			return err
		}

		var issues controller.ValidationErrors
		only = nil
		if errors.As(err, &issues) {
			only = make(map[string]struct{}, len(issues))
			for _, id := range sortedIDs(issues) {
				only[id] = struct{}{}
				for _, msg := range issues[id] {
					if infoErr := f.info(ctx, f.theme.ErrorPrefix, fmt.Sprintf("%s %s", f.labelFor(ctrl, id), msg)); infoErr != nil {
						return infoErr
					}
				}
			}
		} else if infoErr := f.info(ctx, f.theme.ErrorPrefix, err.Error()); infoErr != nil {
			return infoErr
		}
		f.logger.WithField("attempt", attempt).Debug("form rejected, prompting again")

		if f.maxAttempts > 0 {
			if attempt >= f.maxAttempts {
				return fmt.Errorf("%w: %w", ErrGaveUp, err)
			}
			continue
		}
		retry, confirmErr := f.driver.Confirm(ctx, ConfirmConfig{Message: "Correct the fields above?", Default: true})
		if confirmErr != nil {
			return confirmErr
		}
		if !retry {
			return fmt.Errorf("%w: %w", ErrGaveUp, err)
		}
	}
}

func (f *Filler) fill(ctx context.Context, ctrl *controller.Controller, only map[string]struct{}) error {
	def := ctrl.Definition()
	fields := make([]model.FieldDefinition, len(def.Fields))
	copy(fields, def.Fields)
	def.Fields = fields
	render.LocalizeDefinition(&def, render.RenderOptions{Locale: f.locale, Translator: f.translator})

	for _, field := range def.Fields {
		if only != nil {
			if _, ok := only[field.ID]; !ok {
				continue
			}
		}
		if !promptable(field.Kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		current, _ := ctrl.Value(field.ID)
		value, err := f.prompt(ctx, field, current)
		if err != nil {
			return fmt.Errorf("tui: field %q: %w", field.ID, err)
		}
		if err := ctrl.SetValue(field.ID, value); err != nil {
			return err
		}
	}
	return nil
}

func promptable(kind model.FieldKind) bool {
	switch kind {
	case model.FieldKindHidden, model.FieldKindRichText, model.FieldKindButton:
		return false
	}
	return true
}

func (f *Filler) prompt(ctx context.Context, field model.FieldDefinition, current any) (any, error) {
	message := field.Label
	if message == "" {
		message = field.ID
	}
	if field.Required {
		message += " *"
	}

	switch field.Kind {
	case model.FieldKindCheckbox:
		return f.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: truthy(current),
			Help:    field.Help,
		})

	case model.FieldKindSelect, model.FieldKindRadio:
		options, offset := field.Options, 0
		if !field.Required {
			options = append([]string{noneOption}, field.Options...)
			offset = 1
		}
		def := indexOf(field.Options, submission.Stringify(current))
		if def < 0 {
			def = 0
		} else {
			def += offset
		}
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: def,
			Help:         field.Help,
		})
		if err != nil {
			return nil, err
		}
		if idx < offset || idx >= len(options) {
			return nil, nil
		}
		return options[idx], nil

	case model.FieldKindCheckboxList:
		idx, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  field.Options,
			Defaults: indicesOf(field.Options, stringsOf(current)),
			Help:     field.Help,
		})
		if err != nil {
			return nil, err
		}
		picked := defaultsFromIndices(field.Options, idx)
		if len(picked) == 0 {
			return nil, nil
		}
		return picked, nil

	case model.FieldKindTextArea:
		text, err := f.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Default: submission.Stringify(current),
			Help:    field.Help,
		})
		return emptyToNil(text), err

	case model.FieldKindUpload:
		return f.promptFile(ctx, field, message, current)
	}

	text, err := f.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   submission.Stringify(current),
		Help:      field.Help,
		Validator: inputValidator(field),
	})
	if err != nil {
		return nil, err
	}
	return emptyToNil(text), nil
}

func (f *Filler) promptFile(ctx context.Context, field model.FieldDefinition, message string, current any) (any, error) {
	var def string
	if file, ok := current.(submission.File); ok {
		def = file.Name
	}
	path, err := f.driver.Input(ctx, InputConfig{
		Message: message + " (path)",
		Default: def,
		Help:    field.Help,
	})
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if file, ok := current.(submission.File); ok && path == file.Name {
		return file, nil
	}

	data, err := f.readFile(path)
	if err != nil {
		return nil, err
	}
	return submission.File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}, nil
}

const noneOption = "(none)"

func inputValidator(field model.FieldDefinition) func(string) error {
	var re *regexp.Regexp
	if field.Pattern != "" {
		re, _ = regexp.Compile(field.Pattern)
	}
	return func(text string) error {
		text = strings.TrimSpace(text)
		if text == "" {
			if field.Required {
				return errors.New("a value is required")
			}
			return nil
		}
		if field.Kind == model.FieldKindNumber {
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return errors.New("expected a number")
			}
		}
		if re != nil && !re.MatchString(text) {
			return fmt.Errorf("expected format %s", field.Pattern)
		}
		return nil
	}
}

func (f *Filler) info(ctx context.Context, prefix, msg string) error {
	return f.driver.Info(ctx, prefix+msg)
}

func (f *Filler) labelFor(ctrl *controller.Controller, id string) string {
	if field, ok := ctrl.FieldByID(id); ok && field.Label != "" {
		return field.Label
	}
	return id
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func stringsOf(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, submission.Stringify(item))
		}
		return out
	}
	return []string{submission.Stringify(value)}
}

func emptyToNil(text string) any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return text
}

func sortedIDs(issues controller.ValidationErrors) []string {
	ids := make([]string, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
