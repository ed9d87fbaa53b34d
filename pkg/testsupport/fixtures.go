// Package testsupport holds fixtures and helpers shared by package tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formulate/pkg/model"
)

// ContactForm returns a small definition exercising layout, options, a
// button and a static payload.
func ContactForm() model.FormDefinition {
	return model.FormDefinition{
		ID:   "contact",
		Name: "Contact",
		URL:  "/umbraco/formulate/submissions/submit",
		Fields: []model.FieldDefinition{
			{ID: "name", Label: "Name", Kind: model.FieldKindText, Required: true},
			{ID: "email", Label: "Email", Kind: model.FieldKindEmail, Pattern: `^[^@]+@[^@]+$`},
			{ID: "topic", Label: "Topic", Kind: model.FieldKindSelect, Options: []string{"sales", "support"}, InitialValue: "support"},
			{ID: "next", Label: "Next", Kind: model.FieldKindButton, ButtonKind: "next"},
		},
		Rows: []model.Row{
			{Cells: []model.Cell{{ColumnSpan: 6, Fields: []string{"name"}}, {ColumnSpan: 6, Fields: []string{"email"}}}},
			{Cells: []model.Cell{{ColumnSpan: 12, Fields: []string{"topic", "next"}}}},
		},
		Payload: map[string]any{"FormId": "contact"},
	}
}

// MustLoadDefinition reads a JSON or YAML definition fixture.
func MustLoadDefinition(t *testing.T, path string) model.FormDefinition {
	t.Helper()
	def, err := model.LoadFile(path)
	if err != nil {
		t.Fatalf("load definition %s: %v", path, err)
	}
	return def
}

// WriteFile writes data under dir, creating parents, and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
