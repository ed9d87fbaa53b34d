package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formulate/pkg/model"
)

// ErrorMapping splits a server error payload into field-level and
// form-level messages keyed by field id.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises form-level error slices,
// trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload assigns each payload entry to the field it names. Paths
// may use JSON pointer or dotted syntax and may be wrapped in body/data
// segments ("/body/email", "data.topics[0]"). Entries that do not resolve to
// a field are kept as form-level errors so messages are not lost.
func MapErrorPayload(def model.FormDefinition, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(def.Fields))
	for _, field := range def.Fields {
		known[field.ID] = struct{}{}
	}

	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		id, ok := resolveFieldID(rawPath, known)
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[id] = append(mapping.Fields[id], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolveFieldID(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := known[trimmed]; ok {
		return trimmed, true
	}

	clean := strings.NewReplacer("[", ".", "]", "").Replace(trimmed)
	segments := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/' || r == '#' || r == '$'
	})
	for _, segment := range segments {
		segment = strings.ReplaceAll(strings.TrimSpace(segment), "~1", "/")
		if isWrapperSegment(segment) {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if _, ok := known[segment]; ok {
			return segment, true
		}
		return "", false
	}
	return "", false
}

func isWrapperSegment(segment string) bool {
	switch strings.ToLower(segment) {
	case "body", "request", "payload", "data", "fields":
		return true
	default:
		return false
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
