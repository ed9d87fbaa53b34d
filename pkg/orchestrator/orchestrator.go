package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
	"github.com/goliatone/go-formulate/pkg/renderers/html"
)

const defaultRendererName = "html"

// ErrFormNotFound is returned when a request names a form the catalog does
// not hold.
var ErrFormNotFound = errors.New("orchestrator: form not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithForms seeds the catalog with definitions keyed by id.
func WithForms(forms map[string]model.FormDefinition) Option {
	return func(o *Orchestrator) {
		for id, def := range forms {
			o.forms[id] = def
		}
	}
}

// WithFormsFS loads every definition file found in fsys into the catalog.
func WithFormsFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		forms, err := model.LoadFS(fsys)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load forms: %w", err)
			return
		}
		for id, def := range forms {
			o.forms[id] = def
		}
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformers registers transformers applied, in order, to a copy of the
// definition before it is rendered.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithControllerOptions sets options applied to every controller built by
// Controller, ahead of per-call options.
func WithControllerOptions(options ...controller.Option) Option {
	return func(o *Orchestrator) {
		o.controllerOptions = append(o.controllerOptions, options...)
	}
}

// WithHiddenFields adds hidden fields (anti-forgery tokens, page ids) to every
// render and to the payload of every controller, so the inputs a page shows
// are the values a controller posts.
func WithHiddenFields(fields ...render.HiddenField) Option {
	return func(o *Orchestrator) {
		o.hidden = render.MergeHiddenFields(o.hidden, fields...)
	}
}

// Orchestrator coordinates catalog lookup, transformation and rendering.
type Orchestrator struct {
	forms             map[string]model.FormDefinition
	registry          *render.Registry
	defaultRenderer   string
	transformers      []Transformer
	controllerOptions []controller.Option
	hidden            map[string]string
	initialiseErr     error
}

// New constructs an Orchestrator. Without WithRegistry the html renderer is
// registered as the default.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		forms:           make(map[string]model.FormDefinition),
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = errors.Join(o.initialiseErr, fmt.Errorf("orchestrator: default renderer: %w", err))
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	return o
}

// Request describes one render.
type Request struct {
	// FormID selects a catalog definition. Ignored when Definition is set.
	FormID string

	// Definition bypasses the catalog.
	Definition *model.FormDefinition

	// Renderer names the renderer to use; empty selects the default.
	Renderer string

	RenderOptions render.RenderOptions
}

// Generate resolves the definition, applies transformers and renders it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}

	def, err := o.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := o.transform(ctx, &def); err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	opts := req.RenderOptions
	opts.HiddenFields = o.hiddenFor(req)
	output, err := renderer.Render(ctx, def, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Form returns the catalog definition for id.
func (o *Orchestrator) Form(id string) (model.FormDefinition, bool) {
	def, ok := o.forms[id]
	return def, ok
}

// Forms lists catalog ids in sorted order.
func (o *Orchestrator) Forms() []string {
	ids := make([]string, 0, len(o.forms))
	for id := range o.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Controller builds an attached controller for the catalog form id. The
// definition passes through the configured transformers first so it matches
// what Generate renders.
func (o *Orchestrator) Controller(ctx context.Context, id string, options ...controller.Option) (*controller.Controller, error) {
	return o.ControllerFor(ctx, Request{FormID: id}, options...)
}

// ControllerFor builds an attached controller for the definition req
// resolves to. The hidden fields Generate would render for req are folded
// into the controller's payload. Listeners that must see the submit event
// before the controller does should subscribe on the shared bus first.
func (o *Orchestrator) ControllerFor(ctx context.Context, req Request, options ...controller.Option) (*controller.Controller, error) {
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}
	def, err := o.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := o.transform(ctx, &def); err != nil {
		return nil, err
	}
	def = render.WithHiddenPayload(def, o.hiddenFor(req))

	opts := append(append([]controller.Option(nil), o.controllerOptions...), options...)
	ctrl := controller.New(def, opts...)
	if err := ctrl.Attach(); err != nil {
		return nil, fmt.Errorf("orchestrator: attach controller: %w", err)
	}
	return ctrl, nil
}

// hiddenFor merges the orchestrator-wide hidden fields with the request's
// own. Request values win.
func (o *Orchestrator) hiddenFor(req Request) map[string]string {
	return render.MergeHiddenFields(o.hidden, render.SortedHiddenFields(req.RenderOptions.HiddenFields)...)
}

func (o *Orchestrator) resolve(req Request) (model.FormDefinition, error) {
	if req.Definition != nil {
		return cloneDefinition(*req.Definition), nil
	}
	if req.FormID == "" {
		return model.FormDefinition{}, errors.New("orchestrator: form id or definition is required")
	}
	def, ok := o.forms[req.FormID]
	if !ok {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrFormNotFound, req.FormID)
	}
	return cloneDefinition(def), nil
}

func (o *Orchestrator) transform(ctx context.Context, def *model.FormDefinition) error {
	for _, t := range o.transformers {
		if err := t.Transform(ctx, def); err != nil {
			return fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Get(target)
	if err == nil {
		return renderer, nil
	}
	if name != "" {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
	}

	renderer, err = o.registry.Get("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: no usable renderer: %w", err)
	}
	return renderer, nil
}

// cloneDefinition copies the slices and maps transformers may patch so the
// catalog entry stays untouched.
func cloneDefinition(def model.FormDefinition) model.FormDefinition {
	fields := make([]model.FieldDefinition, len(def.Fields))
	for i, field := range def.Fields {
		if field.UIHints != nil {
			hints := make(map[string]string, len(field.UIHints))
			for k, v := range field.UIHints {
				hints[k] = v
			}
			field.UIHints = hints
		}
		fields[i] = field
	}
	def.Fields = fields

	if def.Payload != nil {
		payload := make(map[string]any, len(def.Payload))
		for k, v := range def.Payload {
			payload[k] = v
		}
		def.Payload = payload
	}
	return def
}
