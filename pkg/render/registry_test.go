package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, model.FormDefinition, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistryDefaultsToFirstRegistered(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(namedRenderer("html"))
	registry.MustRegister(namedRenderer("text"))

	got, err := registry.Get("")
	if err != nil || got.Name() != "html" {
		t.Fatalf("expected html default, got %v %v", got, err)
	}
	if err := registry.SetDefault("text"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if got, _ := registry.Get(""); got.Name() != "text" {
		t.Fatalf("expected text default, got %s", got.Name())
	}
	if err := registry.Register(namedRenderer("html")); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatal("expected missing renderer error")
	}
	if diff := cmp.Diff([]string{"html", "text"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}
