package formulate_test

import (
	"context"
	"strings"
	"testing"

	formulate "github.com/goliatone/go-formulate"
	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/testsupport"
)

func TestRenderHTML(t *testing.T) {
	out, err := formulate.RenderHTML(context.Background(), testsupport.ContactForm(), formulate.RenderOptions{FormName: "form2"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `name="form2"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNewControllerAttaches(t *testing.T) {
	ctrl, err := formulate.NewController(testsupport.ContactForm(), controller.WithNameGenerator(controller.NewCounter("contact")))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	defer ctrl.Close()
	if !ctrl.Attached() {
		t.Fatal("expected controller to be attached")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := formulate.EmbeddedTemplates().Open("templates/form.tmpl"); err != nil {
		t.Fatalf("open embedded template: %v", err)
	}
}
