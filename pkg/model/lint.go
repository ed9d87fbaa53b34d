package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var knownKinds = map[FieldKind]struct{}{
	FieldKindText: {}, FieldKindTextArea: {}, FieldKindEmail: {}, FieldKindNumber: {},
	FieldKindCheckbox: {}, FieldKindCheckboxList: {}, FieldKindSelect: {}, FieldKindRadio: {},
	FieldKindDate: {}, FieldKindUpload: {}, FieldKindHidden: {}, FieldKindRichText: {},
	FieldKindButton: {},
}

var allowedUIHints = []string{"cssClass", "helpKey", "labelKey", "placeholder", "placeholderKey"}

// AllowedUIHintKeys lists the UI hint keys renderers understand.
func AllowedUIHintKeys() []string {
	return append([]string(nil), allowedUIHints...)
}

// IsAllowedUIHintKey reports whether key is a supported UI hint.
func IsAllowedUIHintKey(key string) bool {
	for _, allowed := range allowedUIHints {
		if key == allowed {
			return true
		}
	}
	return false
}

// Issue is a non-fatal problem found by Lint.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	return i.Location + " -> " + i.Message
}

// Lint reports problems that Normalize tolerates but that usually indicate
// an authoring mistake. Issues are ordered by field position.
func Lint(def FormDefinition) []Issue {
	var issues []Issue
	add := func(location, format string, args ...any) {
		issues = append(issues, Issue{Location: location, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(def.URL) == "" {
		add("form", "url is empty; submissions have nowhere to go")
	}

	placed := make(map[string]struct{})
	for _, row := range def.Rows {
		for _, cell := range row.Cells {
			for _, id := range cell.Fields {
				placed[id] = struct{}{}
			}
		}
	}

	for _, field := range def.Fields {
		loc := "fields > " + field.ID
		if _, ok := knownKinds[field.Kind]; !ok {
			add(loc, "unknown kind %q", field.Kind)
		}
		switch field.Kind {
		case FieldKindSelect, FieldKindRadio, FieldKindCheckboxList:
			if len(field.Options) == 0 {
				add(loc, "%s field has no options", field.Kind)
			}
		case FieldKindButton:
			if strings.TrimSpace(field.ButtonKind) == "" {
				add(loc, "button has no buttonKind")
			}
		}
		if field.Pattern != "" {
			if _, err := regexp.Compile(field.Pattern); err != nil {
				add(loc, "pattern does not compile: %v", err)
			}
		}

		keys := make([]string, 0, len(field.UIHints))
		for key := range field.UIHints {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !IsAllowedUIHintKey(key) {
				add(loc+" > uiHints", "unsupported UI hint %q (supported: %s)", key, strings.Join(allowedUIHints, ", "))
			}
		}

		if len(def.Rows) > 0 && field.Kind != FieldKindHidden {
			if _, ok := placed[field.ID]; !ok {
				add(loc, "field is not placed in any row")
			}
		}
	}
	return issues
}
