// Package controller binds a form definition to per-instance field values
// and drives submission through the event bus.
//
// Initialization is two-phase. New builds the field lookup and seeds initial
// values; Attach subscribes the submit listener. Anything subscribed to
// events.Submit before Attach sees each submission first and may claim it to
// suppress the default post.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/pkg/events"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/submission"
)

var (
	// ErrInvalid is returned by Submit when validation rejects the values.
	ErrInvalid = errors.New("controller: form is invalid")
	// ErrUnknownField is returned when setting a value for a field id that is
	// not part of the definition.
	ErrUnknownField = errors.New("controller: unknown field")
	// ErrClosed is returned by Attach after Close.
	ErrClosed = errors.New("controller: closed")
	// ErrCancelled lets a Hook stop a submission without reporting failure.
	ErrCancelled = errors.New("controller: submission cancelled")
)

// SubmitRequest is the payload of an events.Submit broadcast. Hooks may
// modify Data before it is posted.
type SubmitRequest struct {
	Form string
	Data map[string]any
}

// SubmitOK is the payload of an events.SubmitOK broadcast.
type SubmitOK struct {
	Form     string
	Name     string
	Fields   map[string]any
	Response map[string]any
}

// SubmitFailed is the payload of an events.SubmitFailed broadcast.
type SubmitFailed struct {
	Form    string
	Name    string
	Fields  map[string]any
	Message string
}

// ButtonClick is the payload of an events.ButtonClicked broadcast.
type ButtonClick struct {
	Form string
	Kind string
}

// Hook runs before a submission is posted. Returning ErrCancelled drops the
// submission silently; any other error is reported as a failed submission.
type Hook func(ctx context.Context, req *SubmitRequest) error

// Controller owns the bound values of one rendered form.
type Controller struct {
	def       model.FormDefinition
	name      string
	scope     string
	bus       events.Publisher
	poster    submission.Poster
	validator Validator
	hooks     []Hook
	logger    logrus.FieldLogger

	fields map[string]model.FieldDefinition

	mu          sync.RWMutex
	values      map[string]any
	unsubscribe func()
	closed      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithBus shares a bus between controllers and the code wrapping them.
func WithBus(bus events.Publisher) Option {
	return func(c *Controller) {
		if bus != nil {
			c.bus = bus
		}
	}
}

// WithPoster overrides the submission transport.
func WithPoster(poster submission.Poster) Option {
	return func(c *Controller) {
		if poster != nil {
			c.poster = poster
		}
	}
}

// WithValidator overrides the default FieldValidator.
func WithValidator(validator Validator) Option {
	return func(c *Controller) {
		if validator != nil {
			c.validator = validator
		}
	}
}

// WithNameGenerator injects the source of generated form names.
func WithNameGenerator(names NameGenerator) Option {
	return func(c *Controller) {
		if names != nil {
			c.name = names.Next()
		}
	}
}

// WithHooks appends pre-submit hooks, run in order.
func WithHooks(hooks ...Hook) Option {
	return func(c *Controller) {
		for _, hook := range hooks {
			if hook != nil {
				c.hooks = append(c.hooks, hook)
			}
		}
	}
}

// WithLogger routes controller diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a controller for def. Fields with a non-nil InitialValue are
// seeded into the value map.
func New(def model.FormDefinition, options ...Option) *Controller {
	c := &Controller{
		def:       def,
		scope:     uuid.NewString(),
		validator: FieldValidator{},
		fields:    make(map[string]model.FieldDefinition, len(def.Fields)),
		values:    make(map[string]any, len(def.Fields)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.name == "" {
		c.name = defaultNames.Next()
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.poster == nil {
		c.poster = submission.NewClient()
	}
	if c.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.logger = discard
	}
	c.logger = c.logger.WithFields(logrus.Fields{"form": c.name, "definition": def.Name})

	for _, field := range def.Fields {
		c.fields[field.ID] = field
	}
	for _, field := range def.Fields {
		if field.InitialValue != nil {
			c.values[field.ID] = field.InitialValue
		}
	}
	return c
}

// Name is the generated form name used for display and in event payloads.
// Names from different generators may collide; Scope does not.
func (c *Controller) Name() string {
	return c.name
}

// Scope is the private token stamped on every event this controller
// publishes. The submit listener only handles events carrying it.
func (c *Controller) Scope() string {
	return c.scope
}

// Definition returns the bound form definition.
func (c *Controller) Definition() model.FormDefinition {
	return c.def
}

// Bus returns the publisher the controller broadcasts on.
func (c *Controller) Bus() events.Publisher {
	return c.bus
}

// FieldByID looks up a field definition.
func (c *Controller) FieldByID(id string) (model.FieldDefinition, bool) {
	field, ok := c.fields[id]
	return field, ok
}

// SetValue binds value to the field. A nil value clears the binding.
func (c *Controller) SetValue(id string, value any) error {
	if _, ok := c.fields[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == nil {
		delete(c.values, id)
		return nil
	}
	c.values[id] = value
	return nil
}

// Value returns the bound value for id.
func (c *Controller) Value(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[id]
	return value, ok
}

// Values returns a copy of the bound values.
func (c *Controller) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for id, value := range c.values {
		out[id] = value
	}
	return out
}

// Attach subscribes the submit listener. Calling it again is a no-op.
func (c *Controller) Attach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.unsubscribe != nil {
		return nil
	}
	c.unsubscribe = c.bus.Subscribe(events.Submit, c.handleSubmit)
	return nil
}

// Attached reports whether the submit listener is registered.
func (c *Controller) Attached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unsubscribe != nil
}

// Close removes the submit listener, if any, and prevents later Attach
// calls. A post already in flight is left to finish.
func (c *Controller) Close() error {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}

// Submit validates the bound values and, when valid, broadcasts a submit
// request carrying the static payload merged with the values. Field values
// win over payload entries with the same key. Invalid forms broadcast
// nothing and return an error wrapping ErrInvalid.
func (c *Controller) Submit(ctx context.Context) error {
	values := c.Values()
	if err := c.validator.Validate(c.def, values); err != nil {
		c.logger.WithError(err).Debug("form submission rejected by validation")
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	data := make(map[string]any, len(c.def.Payload)+len(values))
	for key, value := range c.def.Payload {
		data[key] = value
	}
	for key, value := range values {
		data[key] = value
	}

	c.bus.Publish(ctx, &events.Event{
		Name:    events.Submit,
		Scope:   c.scope,
		Payload: &SubmitRequest{Form: c.name, Data: data},
	})
	return nil
}

// ButtonClicked broadcasts a button interaction. An empty kind stands for
// "no button kind" and publishes nothing.
func (c *Controller) ButtonClicked(ctx context.Context, kind string) {
	if kind == "" {
		return
	}
	c.bus.Publish(ctx, &events.Event{
		Name:    events.ButtonClicked,
		Scope:   c.scope,
		Payload: ButtonClick{Form: c.name, Kind: kind},
	})
}

func (c *Controller) handleSubmit(ctx context.Context, event *events.Event) {
	if event.Scope != c.scope || event.Claimed() {
		return
	}
	req, ok := event.Payload.(*SubmitRequest)
	if !ok || req == nil {
		c.logger.Warn("ignoring submit event without a request payload")
		return
	}

	for _, hook := range c.hooks {
		err := hook(ctx, req)
		if errors.Is(err, ErrCancelled) {
			c.logger.Debug("form submission cancelled by hook")
			return
		}
		if err != nil {
			c.publishFailed(ctx, err.Error())
			return
		}
	}

	result := c.poster.Post(ctx, c.def.URL, req.Data)
	if result.Success {
		c.logger.WithField("status", result.Status).Info("form submitted")
		c.bus.Publish(ctx, &events.Event{
			Name:  events.SubmitOK,
			Scope: c.scope,
			Payload: SubmitOK{
				Form:     c.name,
				Name:     c.def.Name,
				Fields:   c.Values(),
				Response: result.Data,
			},
		})
		return
	}
	c.publishFailed(ctx, result.Message)
}

func (c *Controller) publishFailed(ctx context.Context, message string) {
	c.logger.WithField("reason", message).Warn("form submission failed")
	c.bus.Publish(ctx, &events.Event{
		Name:  events.SubmitFailed,
		Scope: c.scope,
		Payload: SubmitFailed{
			Form:    c.name,
			Name:    c.def.Name,
			Fields:  c.Values(),
			Message: message,
		},
	})
}
