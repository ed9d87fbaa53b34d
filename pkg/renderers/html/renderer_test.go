package html_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formulate/pkg/localize"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
	"github.com/goliatone/go-formulate/pkg/renderers/html"
)

func contactDefinition() model.FormDefinition {
	return model.FormDefinition{
		Name: "Contact",
		URL:  "/umbraco/formulate/submissions/submit",
		Fields: []model.FieldDefinition{
			{ID: "name", Label: "Name", Kind: model.FieldKindText, Required: true, UIHints: map[string]string{"labelKey": "fields.name"}},
			{ID: "topic", Label: "Topic", Kind: model.FieldKindSelect, Options: []string{"sales", "support"}, InitialValue: "support"},
			{ID: "notes", Label: "Notes", Kind: model.FieldKindTextArea, Help: `Keep it short <script>alert(1)</script><b>please</b>`},
			{ID: "next", Label: "Next", Kind: model.FieldKindButton, ButtonKind: "next"},
		},
		Rows: []model.Row{
			{Cells: []model.Cell{{ColumnSpan: 6, Fields: []string{"name"}}, {ColumnSpan: 6, Fields: []string{"topic"}}}},
			{Cells: []model.Cell{{ColumnSpan: 12, Fields: []string{"notes", "next"}}}},
		},
	}
}

func TestRendererRendersRowsAndFields(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	svc := localize.NewTextService(localize.TextServiceConfig{})
	svc.Register("da", map[string]string{"fields.name": "Navn", html.SubmitLabelKey: "Send"})

	out, err := renderer.Render(context.Background(), contactDefinition(), render.RenderOptions{
		FormName:     "form3",
		Locale:       "da",
		Translator:   svc,
		HiddenFields: map[string]string{"PageId": "1061"},
		Errors:       map[string][]string{"name": {"Name is required"}, "captcha": {"Captcha failed"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		`<div class="formulate-container">`,
		`name="form3"`,
		`action="/umbraco/formulate/submissions/submit"`,
		`enctype="multipart/form-data"`,
		`<input type="hidden" name="PageId" value="1061">`,
		`col-md-6`,
		`>Navn`,
		`<option value="support" selected>`,
		`data-button-kind="next"`,
		`<b>please</b>`,
		`Name is required`,
		`Captcha failed`,
		`>Send</button>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected output to contain %q\n%s", want, page)
		}
	}
	if strings.Contains(page, "<script>") {
		t.Fatalf("expected help text to be sanitized:\n%s", page)
	}
}

func TestRendererFallsBackToSingleColumn(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	def := contactDefinition()
	def.Rows = nil

	out, err := renderer.Render(context.Background(), def, render.RenderOptions{
		Values: map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)
	if !strings.Contains(page, "col-md-12") || !strings.Contains(page, `value="Ada"`) {
		t.Fatalf("unexpected output:\n%s", page)
	}
	if !strings.Contains(page, `name="form"`) || !strings.Contains(page, ">Submit</button>") {
		t.Fatalf("expected default name and submit label:\n%s", page)
	}
}
