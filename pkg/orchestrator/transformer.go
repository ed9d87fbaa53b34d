package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formulate/pkg/model"
)

// Transformer mutates a form definition before it is rendered or bound to a
// controller.
type Transformer interface {
	Transform(ctx context.Context, def *model.FormDefinition) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, def *model.FormDefinition) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, def *model.FormDefinition) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, def)
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// The document shape supports form-level settings and per-field patches:
//
//	{
//	  "url": "/umbraco/formulate/submissions",
//	  "payload": {"PageId": "1042"},
//	  "fields": {
//	    "email": {"label": "Work email", "required": true, "uiHints": {"labelKey": "fields.email"}}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	URL     string                    `json:"url"`
	Payload map[string]any            `json:"payload"`
	Fields  map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label    string            `json:"label"`
	Help     string            `json:"help"`
	Pattern  string            `json:"pattern"`
	Required *bool             `json:"required"`
	Options  []string          `json:"options"`
	UIHints  map[string]string `json:"uiHints"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto def.
func (t *JSONPresetTransformer) Transform(ctx context.Context, def *model.FormDefinition) error {
	if def == nil {
		return errors.New("json preset transformer: form definition is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if url := strings.TrimSpace(t.document.URL); url != "" {
		def.URL = url
	}
	if len(t.document.Payload) > 0 {
		if def.Payload == nil {
			def.Payload = make(map[string]any, len(t.document.Payload))
		}
		for key, value := range t.document.Payload {
			def.Payload[key] = value
		}
	}

	for id, patch := range t.document.Fields {
		field := findField(def.Fields, id)
		if field == nil {
			return fmt.Errorf("json preset transformer: field %q not found", id)
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applyFieldPatch(field *model.FieldDefinition, patch jsonFieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Help != "" {
		field.Help = patch.Help
	}
	if patch.Pattern != "" {
		field.Pattern = patch.Pattern
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if len(patch.Options) > 0 {
		field.Options = append([]string(nil), patch.Options...)
	}
	if len(patch.UIHints) > 0 {
		field.UIHints = mergeStringMap(field.UIHints, patch.UIHints)
	}
}

func findField(fields []model.FieldDefinition, id string) *model.FieldDefinition {
	id = strings.TrimSpace(id)
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
