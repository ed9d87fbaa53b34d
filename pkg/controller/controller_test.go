package controller_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/events"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/submission"
)

type stubPoster struct {
	result submission.Result
	calls  []map[string]any
	urls   []string
}

func (p *stubPoster) Post(_ context.Context, url string, data map[string]any) submission.Result {
	p.urls = append(p.urls, url)
	p.calls = append(p.calls, data)
	return p.result
}

type recorder struct {
	events []*events.Event
}

func (r *recorder) listen(bus *events.Bus, names ...string) {
	for _, name := range names {
		bus.Subscribe(name, func(_ context.Context, e *events.Event) {
			r.events = append(r.events, e)
		})
	}
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func contactForm() model.FormDefinition {
	return model.FormDefinition{
		Name: "Contact",
		URL:  "/submit",
		Fields: []model.FieldDefinition{
			{ID: "name", Required: true},
			{ID: "topics", InitialValue: []string{"support"}},
			{ID: "empty"},
			{ID: "zero", InitialValue: 0},
		},
		Payload: map[string]any{"FormId": "42"},
	}
}

func newController(t *testing.T, def model.FormDefinition, poster submission.Poster, opts ...controller.Option) (*controller.Controller, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	base := []controller.Option{
		controller.WithBus(bus),
		controller.WithPoster(poster),
		controller.WithNameGenerator(controller.NewCounter("form")),
	}
	ctrl := controller.New(def, append(base, opts...)...)
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl, bus
}

func TestNewSeedsNonNilInitialValues(t *testing.T) {
	ctrl, _ := newController(t, contactForm(), &stubPoster{})

	want := map[string]any{
		"topics": []string{"support"},
		"zero":   0,
	}
	if diff := cmp.Diff(want, ctrl.Values()); diff != "" {
		t.Fatalf("seeded values mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ctrl.FieldByID("empty"); !ok {
		t.Fatal("expected field lookup to include fields without values")
	}
}

func TestNameGeneratorIsMonotonic(t *testing.T) {
	names := controller.NewCounter("form")
	first := controller.New(contactForm(), controller.WithNameGenerator(names))
	second := controller.New(contactForm(), controller.WithNameGenerator(names))

	if first.Name() != "form1" || second.Name() != "form2" {
		t.Fatalf("unexpected names %q, %q", first.Name(), second.Name())
	}
}

func TestDefaultNamesAreUniqueAcrossControllers(t *testing.T) {
	a := controller.New(contactForm())
	b := controller.New(contactForm())

	na, err := strconv.Atoi(strings.TrimPrefix(a.Name(), "form"))
	if err != nil {
		t.Fatalf("unexpected name %q", a.Name())
	}
	nb, err := strconv.Atoi(strings.TrimPrefix(b.Name(), "form"))
	if err != nil {
		t.Fatalf("unexpected name %q", b.Name())
	}
	if nb <= na {
		t.Fatalf("expected increasing names, got %q then %q", a.Name(), b.Name())
	}
}

func TestSetValueRejectsUnknownField(t *testing.T) {
	ctrl, _ := newController(t, contactForm(), &stubPoster{})

	if err := ctrl.SetValue("nope", 1); !errors.Is(err, controller.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := ctrl.SetValue("topics", nil); err != nil {
		t.Fatalf("clear value: %v", err)
	}
	if _, ok := ctrl.Value("topics"); ok {
		t.Fatal("expected nil to clear the binding")
	}
	if _, ok := ctrl.Value("nope"); ok {
		t.Fatal("expected no orphan entry")
	}
}

func TestSubmitInvalidFormEmitsNothing(t *testing.T) {
	poster := &stubPoster{result: submission.Result{Success: true}}
	ctrl, bus := newController(t, contactForm(), poster)
	rec := &recorder{}
	rec.listen(bus, events.Submit, events.SubmitOK, events.SubmitFailed)
	if err := ctrl.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}

	err := ctrl.Submit(context.Background())
	if !errors.Is(err, controller.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var issues controller.ValidationErrors
	if !errors.As(err, &issues) || len(issues["name"]) == 0 {
		t.Fatalf("expected field issues for name, got %v", err)
	}
	if len(rec.events) != 0 || len(poster.calls) != 0 {
		t.Fatalf("expected no events or posts, got %v / %d", rec.names(), len(poster.calls))
	}
}

func TestSubmitSuccessPublishesOK(t *testing.T) {
	poster := &stubPoster{result: submission.Result{
		Success: true,
		Data:    map[string]any{"Success": true, "data": map[string]any{"id": 7}},
	}}
	ctrl, bus := newController(t, contactForm(), poster)
	rec := &recorder{}
	rec.listen(bus, events.SubmitOK, events.SubmitFailed)
	if err := ctrl.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.SetValue("name", "Ada"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if diff := cmp.Diff([]string{events.SubmitOK}, rec.names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	ok := rec.events[0].Payload.(controller.SubmitOK)
	if ok.Name != "Contact" || ok.Form != "form1" {
		t.Fatalf("unexpected payload header %+v", ok)
	}
	if diff := cmp.Diff(map[string]any{"id": 7}, ok.Response["data"]); diff != "" {
		t.Fatalf("response data mismatch (-want +got):\n%s", diff)
	}
	if ok.Fields["name"] != "Ada" {
		t.Fatalf("expected current field values, got %v", ok.Fields)
	}

	wantPosted := map[string]any{
		"FormId": "42",
		"name":   "Ada",
		"topics": []string{"support"},
		"zero":   0,
	}
	if diff := cmp.Diff(wantPosted, poster.calls[0]); diff != "" {
		t.Fatalf("posted data mismatch (-want +got):\n%s", diff)
	}
	if poster.urls[0] != "/submit" {
		t.Fatalf("unexpected url %q", poster.urls[0])
	}
}

func TestSubmitFailurePublishesFailedOnce(t *testing.T) {
	poster := &stubPoster{result: submission.Failure("Missing name", 200)}
	ctrl, bus := newController(t, contactForm(), poster)
	rec := &recorder{}
	rec.listen(bus, events.SubmitOK, events.SubmitFailed)
	_ = ctrl.Attach()
	_ = ctrl.SetValue("name", "Ada")

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if diff := cmp.Diff([]string{events.SubmitFailed}, rec.names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	failed := rec.events[0].Payload.(controller.SubmitFailed)
	if failed.Message != "Missing name" || failed.Name != "Contact" {
		t.Fatalf("unexpected failure payload %+v", failed)
	}

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if len(poster.calls) != 2 {
		t.Fatalf("expected controller to accept another submit, got %d posts", len(poster.calls))
	}
}

func TestSubmitBeforeAttachIsNotPosted(t *testing.T) {
	poster := &stubPoster{result: submission.Result{Success: true}}
	ctrl, _ := newController(t, contactForm(), poster)
	_ = ctrl.SetValue("name", "Ada")

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(poster.calls) != 0 {
		t.Fatal("expected no post before Attach")
	}
}

func TestListenerRegisteredBeforeAttachCanClaim(t *testing.T) {
	poster := &stubPoster{result: submission.Result{Success: true}}
	ctrl, bus := newController(t, contactForm(), poster)
	_ = ctrl.SetValue("name", "Ada")

	var intercepted map[string]any
	bus.Subscribe(events.Submit, func(_ context.Context, e *events.Event) {
		intercepted = e.Payload.(*controller.SubmitRequest).Data
		e.Claim()
	})
	_ = ctrl.Attach()

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(poster.calls) != 0 {
		t.Fatal("expected claimed submission not to be posted")
	}
	if intercepted["name"] != "Ada" {
		t.Fatalf("expected interceptor to see data, got %v", intercepted)
	}
}

func TestListenerIgnoresOtherScopes(t *testing.T) {
	poster := &stubPoster{result: submission.Result{Success: true}}
	bus := events.NewBus()
	names := controller.NewCounter("form")
	first := controller.New(contactForm(), controller.WithBus(bus), controller.WithPoster(poster), controller.WithNameGenerator(names))
	second := controller.New(contactForm(), controller.WithBus(bus), controller.WithPoster(&stubPoster{}), controller.WithNameGenerator(names))
	_ = first.Attach()
	_ = second.Attach()
	_ = first.SetValue("name", "Ada")

	if err := first.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(poster.calls) != 1 {
		t.Fatalf("expected exactly one post, got %d", len(poster.calls))
	}
}

func TestControllersWithCollidingNamesKeepSeparateScopes(t *testing.T) {
	bus := events.NewBus()
	poster := &stubPoster{result: submission.Result{Success: true}}

	defA := contactForm()
	defA.URL = "/a"
	defB := contactForm()
	defB.URL = "/b"
	a := controller.New(defA, controller.WithBus(bus), controller.WithPoster(poster), controller.WithNameGenerator(controller.NewCounter("form")))
	b := controller.New(defB, controller.WithBus(bus), controller.WithPoster(poster), controller.WithNameGenerator(controller.NewCounter("form")))
	_ = a.Attach()
	_ = b.Attach()

	if a.Name() != b.Name() {
		t.Fatalf("expected colliding names, got %q and %q", a.Name(), b.Name())
	}
	if a.Scope() == b.Scope() || a.Scope() == "" {
		t.Fatalf("expected distinct scopes, got %q and %q", a.Scope(), b.Scope())
	}

	_ = a.SetValue("name", "Ada")
	if err := a.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]string{"/a"}, poster.urls); diff != "" {
		t.Fatalf("posted urls mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValidatorChecksNumbers(t *testing.T) {
	def := model.FormDefinition{
		Fields: []model.FieldDefinition{
			{ID: "age", Kind: model.FieldKindNumber},
			{ID: "scores", Kind: model.FieldKindNumber},
		},
	}
	cases := []struct {
		name   string
		values map[string]any
		want   controller.ValidationErrors
	}{
		{name: "numeric text", values: map[string]any{"age": "42", "scores": []string{"1.5", "-3"}}},
		{name: "native number", values: map[string]any{"age": 42}},
		{name: "blank", values: map[string]any{"age": ""}},
		{
			name:   "garbage",
			values: map[string]any{"age": "not-a-number", "scores": []string{"1", "x"}},
			want:   controller.ValidationErrors{"age": {"must be a number"}, "scores": {"must be a number"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := controller.FieldValidator{}.Validate(def, tc.values)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var issues controller.ValidationErrors
			if !errors.As(err, &issues) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if diff := cmp.Diff(tc.want, issues); diff != "" {
				t.Fatalf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHooksCanModifyCancelOrFail(t *testing.T) {
	t.Run("modify", func(t *testing.T) {
		poster := &stubPoster{result: submission.Result{Success: true}}
		ctrl, _ := newController(t, contactForm(), poster, controller.WithHooks(func(_ context.Context, req *controller.SubmitRequest) error {
			req.Data["token"] = "xyz"
			return nil
		}))
		_ = ctrl.Attach()
		_ = ctrl.SetValue("name", "Ada")
		_ = ctrl.Submit(context.Background())
		if poster.calls[0]["token"] != "xyz" {
			t.Fatalf("expected hook mutation to be posted, got %v", poster.calls[0])
		}
	})

	t.Run("cancel", func(t *testing.T) {
		poster := &stubPoster{result: submission.Result{Success: true}}
		ctrl, bus := newController(t, contactForm(), poster, controller.WithHooks(func(context.Context, *controller.SubmitRequest) error {
			return controller.ErrCancelled
		}))
		rec := &recorder{}
		rec.listen(bus, events.SubmitOK, events.SubmitFailed)
		_ = ctrl.Attach()
		_ = ctrl.SetValue("name", "Ada")
		_ = ctrl.Submit(context.Background())
		if len(poster.calls) != 0 || len(rec.events) != 0 {
			t.Fatalf("expected silent cancel, got %d posts and %v", len(poster.calls), rec.names())
		}
	})

	t.Run("fail", func(t *testing.T) {
		poster := &stubPoster{result: submission.Result{Success: true}}
		ctrl, bus := newController(t, contactForm(), poster, controller.WithHooks(func(context.Context, *controller.SubmitRequest) error {
			return errors.New("captcha rejected")
		}))
		rec := &recorder{}
		rec.listen(bus, events.SubmitFailed)
		_ = ctrl.Attach()
		_ = ctrl.SetValue("name", "Ada")
		_ = ctrl.Submit(context.Background())
		if len(poster.calls) != 0 || len(rec.events) != 1 {
			t.Fatalf("expected one failure and no post, got %d posts and %v", len(poster.calls), rec.names())
		}
		if msg := rec.events[0].Payload.(controller.SubmitFailed).Message; msg != "captcha rejected" {
			t.Fatalf("unexpected message %q", msg)
		}
	})
}

func TestButtonClicked(t *testing.T) {
	ctrl, bus := newController(t, contactForm(), &stubPoster{})
	rec := &recorder{}
	rec.listen(bus, events.ButtonClicked)

	ctrl.ButtonClicked(context.Background(), "")
	if len(rec.events) != 0 {
		t.Fatalf("expected no event for empty kind, got %v", rec.names())
	}

	ctrl.ButtonClicked(context.Background(), "next")
	if len(rec.events) != 1 {
		t.Fatalf("expected one event, got %d", len(rec.events))
	}
	if diff := cmp.Diff(controller.ButtonClick{Form: "form1", Kind: "next"}, rec.events[0].Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseRemovesListener(t *testing.T) {
	ctrl, bus := newController(t, contactForm(), &stubPoster{})
	if err := ctrl.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Attach(); err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if got := bus.Listeners(events.Submit); got != 1 {
		t.Fatalf("expected one listener, got %d", got)
	}

	_ = ctrl.Close()
	if got := bus.Listeners(events.Submit); got != 0 {
		t.Fatalf("expected listener removed, got %d", got)
	}
	if ctrl.Attached() {
		t.Fatal("expected controller detached")
	}
}

func TestCloseBeforeAttachPreventsAttach(t *testing.T) {
	ctrl, bus := newController(t, contactForm(), &stubPoster{})
	_ = ctrl.Close()

	if err := ctrl.Attach(); !errors.Is(err, controller.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if got := bus.Listeners(events.Submit); got != 0 {
		t.Fatalf("expected no listener, got %d", got)
	}
}

func TestSubmitEndToEndMultipart(t *testing.T) {
	var posted map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
		}
		posted = r.MultipartForm.Value
		_, _ = w.Write([]byte(`{"Success":true,"data":{"id":7}}`))
	}))
	defer server.Close()

	def := model.FormDefinition{
		Name:    "Example",
		URL:     server.URL,
		Fields:  []model.FieldDefinition{{ID: "b"}, {ID: "c"}},
		Payload: map[string]any{"a": 1},
	}
	client := submission.NewClient(submission.WithHTTPClient(server.Client()))
	ctrl, bus := newController(t, def, client)
	rec := &recorder{}
	rec.listen(bus, events.SubmitOK, events.SubmitFailed)
	_ = ctrl.Attach()
	_ = ctrl.SetValue("b", []int{2, 3})

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := map[string][]string{"a": {"1"}, "b": {"2", "3"}}
	if diff := cmp.Diff(want, posted); diff != "" {
		t.Fatalf("posted fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{events.SubmitOK}, rec.names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
