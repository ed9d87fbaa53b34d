package controller

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formulate/pkg/model"
)

// Validator decides whether the bound values may be submitted.
type Validator interface {
	Validate(def model.FormDefinition, values map[string]any) error
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(def model.FormDefinition, values map[string]any) error

// Validate calls f.
func (f ValidatorFunc) Validate(def model.FormDefinition, values map[string]any) error {
	return f(def, values)
}

// ValidationErrors collects messages keyed by field id.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	ids := make([]string, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+strings.Join(v[id], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldValidator enforces the Required and Pattern settings of each field and
// requires number fields to hold numeric text. Invalid patterns are ignored.
type FieldValidator struct{}

// Validate implements Validator.
func (FieldValidator) Validate(def model.FormDefinition, values map[string]any) error {
	issues := ValidationErrors{}
	for _, field := range def.Fields {
		if field.Kind == model.FieldKindButton {
			continue
		}
		value, present := values[field.ID]
		if field.Required && (!present || isEmpty(value)) {
			issues[field.ID] = append(issues[field.ID], "is required")
			continue
		}
		if !present {
			continue
		}
		if field.Kind == model.FieldKindNumber && !numeric(value) {
			issues[field.ID] = append(issues[field.ID], "must be a number")
			continue
		}
		if field.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			continue
		}
		for _, text := range textValues(value) {
			if text != "" && !re.MatchString(text) {
				issues[field.ID] = append(issues[field.ID], "does not match the expected format")
				break
			}
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return issues
}

// numeric reports whether every non-blank entry of value parses as a number.
func numeric(value any) bool {
	if isEmpty(value) {
		return true
	}
	for _, text := range textValues(value) {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return false
		}
	}
	return true
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func textValues(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, fmt.Sprint(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{fmt.Sprint(value)}
}
