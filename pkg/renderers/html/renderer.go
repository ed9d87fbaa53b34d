// Package html renders form definitions as bootstrap-flavoured HTML using
// embedded pongo2 templates. Help text and rich-text fields may carry markup;
// it is passed through a bluemonday policy before reaching the page.
package html

import (
	"context"
	"io/fs"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formulate/pkg/localize"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
	"github.com/goliatone/go-formulate/pkg/submission"
)

// SubmitLabelKey is translated for the submit button text.
const SubmitLabelKey = "formulate.submit"

type config struct {
	templateFS fs.FS
	labels     *localize.Accessor
	policy     *bluemonday.Policy
}

// Option configures the renderer.
type Option func(*config)

// WithTemplatesFS supplies an alternate template bundle. It must contain
// templates/form.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithLabels exposes category labels to templates through the label helper.
func WithLabels(labels *localize.Accessor) Option {
	return func(cfg *config) {
		cfg.labels = labels
	}
}

// WithPolicy overrides the sanitizer applied to help and rich text.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	engine *engine
	labels *localize.Accessor
	policy *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.policy == nil {
		cfg.policy = bluemonday.UGCPolicy()
	}

	eng, err := newEngine(cfg.templateFS)
	if err != nil {
		return nil, err
	}
	return &Renderer{engine: eng, labels: cfg.labels, policy: cfg.policy}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render localizes a copy of def and renders it through templates/form.tmpl.
func (r *Renderer) Render(ctx context.Context, def model.FormDefinition, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	def = cloneFields(def)
	render.LocalizeDefinition(&def, opts)

	view := r.buildView(def, opts)
	data := pongo2.Context{"form": view}
	for name, fn := range render.TemplateI18nFuncs(opts.Translator, render.TemplateI18nConfig{
		Locale:    opts.Locale,
		Labels:    r.labels,
		OnMissing: opts.OnMissing,
	}) {
		data[name] = fn
	}

	out, err := r.engine.render(formTemplate, data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

type formView struct {
	Name        string
	Action      string
	SubmitLabel string
	Hidden      []render.HiddenField
	Errors      []string
	Rows        []rowView
}

type rowView struct {
	Cells []cellView
}

type cellView struct {
	Span   int
	Fields []fieldView
}

type fieldView struct {
	ID          string
	ControlID   string
	Label       string
	Kind        string
	InputType   string
	Required    bool
	Pattern     string
	Placeholder string
	Help        string
	ButtonKind  string
	Value       string
	Checked     bool
	Options     []optionView
	Errors      []string
}

type optionView struct {
	Value    string
	Selected bool
}

func (r *Renderer) buildView(def model.FormDefinition, opts render.RenderOptions) formView {
	name := strings.TrimSpace(opts.FormName)
	if name == "" {
		name = "form"
	}

	mapped := render.MapErrorPayload(def, opts.Errors)
	fields := make(map[string]fieldView, len(def.Fields))
	for _, field := range def.Fields {
		fields[field.ID] = r.buildField(field, name, valueFor(field, opts.Values), mapped.Fields[field.ID])
	}

	rows := def.Rows
	if len(rows) == 0 {
		ids := make([]string, 0, len(def.Fields))
		for _, field := range def.Fields {
			ids = append(ids, field.ID)
		}
		rows = []model.Row{{Cells: []model.Cell{{ColumnSpan: 12, Fields: ids}}}}
	}

	view := formView{
		Name:        name,
		Action:      def.URL,
		SubmitLabel: submitLabel(opts),
		Hidden:      render.SortedHiddenFields(opts.HiddenFields),
		Errors:      mapped.Form,
	}
	for _, row := range rows {
		rv := rowView{}
		for _, cell := range row.Cells {
			cv := cellView{Span: cell.ColumnSpan}
			for _, id := range cell.Fields {
				if fv, ok := fields[id]; ok {
					cv.Fields = append(cv.Fields, fv)
				}
			}
			rv.Cells = append(rv.Cells, cv)
		}
		view.Rows = append(view.Rows, rv)
	}
	return view
}

func (r *Renderer) buildField(field model.FieldDefinition, formName string, value any, errs []string) fieldView {
	fv := fieldView{
		ID:          field.ID,
		ControlID:   formName + "-" + field.ID,
		Label:       field.Label,
		Kind:        string(field.Kind),
		InputType:   inputType(field.Kind),
		Required:    field.Required,
		Pattern:     field.Pattern,
		Placeholder: field.UIHints["placeholder"],
		Help:        r.policy.Sanitize(field.Help),
		ButtonKind:  field.ButtonKind,
		Errors:      errs,
	}

	selected := make(map[string]struct{})
	for _, v := range valueStrings(value) {
		selected[v] = struct{}{}
	}
	switch field.Kind {
	case model.FieldKindSelect, model.FieldKindRadio, model.FieldKindCheckboxList:
		for _, option := range field.Options {
			_, ok := selected[option]
			fv.Options = append(fv.Options, optionView{Value: option, Selected: ok})
		}
	case model.FieldKindCheckbox:
		_, fv.Checked = selected["true"]
	default:
		if values := valueStrings(value); len(values) > 0 {
			fv.Value = values[0]
		}
	}
	return fv
}

func valueFor(field model.FieldDefinition, values map[string]any) any {
	if len(values) > 0 {
		return values[field.ID]
	}
	return field.InitialValue
}

func valueStrings(value any) []string {
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
	default:
		return []string{submission.Stringify(v)}
	}
}

func inputType(kind model.FieldKind) string {
	switch kind {
	case model.FieldKindEmail:
		return "email"
	case model.FieldKindNumber:
		return "number"
	case model.FieldKindDate:
		return "date"
	case model.FieldKindUpload:
		return "file"
	default:
		return "text"
	}
}

func submitLabel(opts render.RenderOptions) string {
	if opts.Translator != nil {
		if msg, err := opts.Translator.Translate(opts.Locale, SubmitLabelKey); err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return "Submit"
}

func cloneFields(def model.FormDefinition) model.FormDefinition {
	fields := make([]model.FieldDefinition, len(def.Fields))
	copy(fields, def.Fields)
	def.Fields = fields
	return def
}
