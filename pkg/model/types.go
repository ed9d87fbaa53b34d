package model

// FieldKind hints how a field is presented. Renderers fall back to text for
// kinds they do not know.
type FieldKind string

const (
	FieldKindText         FieldKind = "text"
	FieldKindTextArea     FieldKind = "textarea"
	FieldKindEmail        FieldKind = "email"
	FieldKindNumber       FieldKind = "number"
	FieldKindCheckbox     FieldKind = "checkbox"
	FieldKindCheckboxList FieldKind = "checkboxlist"
	FieldKindSelect       FieldKind = "select"
	FieldKindRadio        FieldKind = "radio"
	FieldKindDate         FieldKind = "date"
	FieldKindUpload       FieldKind = "upload"
	FieldKindHidden       FieldKind = "hidden"
	FieldKindRichText     FieldKind = "richtext"
	FieldKindButton       FieldKind = "button"
)

// FieldDefinition describes a single input. ID is unique within a form.
type FieldDefinition struct {
	ID    string    `json:"id" yaml:"id"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Kind  FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	// InitialValue seeds the bound value when non-nil. Scalars and slices are
	// both allowed.
	InitialValue any      `json:"initialValue,omitempty" yaml:"initialValue,omitempty"`
	Required     bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Pattern      string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Options      []string `json:"options,omitempty" yaml:"options,omitempty"`
	Help         string   `json:"help,omitempty" yaml:"help,omitempty"`
	// ButtonKind is reported through the button-interaction event for
	// FieldKindButton fields (e.g. "next", "previous").
	ButtonKind string `json:"buttonKind,omitempty" yaml:"buttonKind,omitempty"`
	// UIHints carries renderer-facing directives such as labelKey or cssClass.
	UIHints map[string]string `json:"uiHints,omitempty" yaml:"uiHints,omitempty"`
}

// Cell is one column of a layout row.
type Cell struct {
	ColumnSpan int      `json:"columnSpan,omitempty" yaml:"columnSpan,omitempty"`
	Fields     []string `json:"fields" yaml:"fields"`
}

// Row groups cells horizontally.
type Row struct {
	Cells []Cell `json:"cells" yaml:"cells"`
}

// FormDefinition is the declarative description of a renderable form.
type FormDefinition struct {
	ID      string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string            `json:"name" yaml:"name"`
	URL     string            `json:"url" yaml:"url"`
	Fields  []FieldDefinition `json:"fields" yaml:"fields"`
	Rows    []Row             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Payload map[string]any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// FieldByID returns the field with the given id.
func (d FormDefinition) FieldByID(id string) (FieldDefinition, bool) {
	for _, field := range d.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldDefinition{}, false
}
