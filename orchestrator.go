// Package formulate renders declarative form definitions, binds their field
// values, and submits them as multipart posts, reporting outcomes on an
// in-process event bus.
//
// The subpackages carry the implementation; this package re-exports the
// pieces most callers need.
package formulate

import (
	"context"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/events"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/orchestrator"
	"github.com/goliatone/go-formulate/pkg/render"
)

// FormDefinition aliases model.FormDefinition.
type FormDefinition = model.FormDefinition

// FieldDefinition aliases model.FieldDefinition.
type FieldDefinition = model.FieldDefinition

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// Controller aliases controller.Controller.
type Controller = controller.Controller

// Event names broadcast by controllers.
const (
	EventSubmit        = events.Submit
	EventSubmitOK      = events.SubmitOK
	EventSubmitFailed  = events.SubmitFailed
	EventButtonClicked = events.ButtonClicked
)

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewController builds a controller for def and attaches its submit
// listener. Use controller.New directly to register bus listeners that must
// run before the default submit handling.
func NewController(def FormDefinition, options ...controller.Option) (*Controller, error) {
	ctrl := controller.New(def, options...)
	if err := ctrl.Attach(); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// RenderHTML renders def with the default html renderer.
func RenderHTML(ctx context.Context, def FormDefinition, opts RenderOptions) ([]byte, error) {
	return orchestrator.New().Generate(ctx, orchestrator.Request{
		Definition:    &def,
		RenderOptions: opts,
	})
}

// LoadDefinition reads a JSON or YAML definition file.
func LoadDefinition(path string) (FormDefinition, error) {
	return model.LoadFile(path)
}
