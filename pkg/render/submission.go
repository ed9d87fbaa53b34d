package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formulate/pkg/model"
)

// HiddenField represents a hidden input emitted alongside the visible
// fields and merged into the submission payload.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// AntiForgeryToken constructs the hidden token field most CMS hosts expect
// on form posts (e.g. "__RequestVerificationToken").
func AntiForgeryToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// PageField records the page a form was rendered on so submissions can be
// traced back to it.
func PageField(name string, pageID any) HiddenField {
	return Hidden(name, pageID)
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields returns the fields sorted by name for deterministic
// rendering.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: name, Value: fields[name]})
	}
	return result
}

// WithHiddenPayload returns a copy of def whose static payload also carries
// the hidden fields, so the values rendered as hidden inputs are the ones a
// controller posts.
func WithHiddenPayload(def model.FormDefinition, hidden map[string]string) model.FormDefinition {
	if len(hidden) == 0 {
		return def
	}
	payload := make(map[string]any, len(def.Payload)+len(hidden))
	for key, value := range def.Payload {
		payload[key] = value
	}
	for key, value := range hidden {
		payload[key] = value
	}
	def.Payload = payload
	return def
}
