package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyDefinition is returned for blank definition files.
	ErrEmptyDefinition = errors.New("model: definition is empty")
	// ErrDuplicateField flags two fields sharing an id.
	ErrDuplicateField = errors.New("model: duplicate field id")
	// ErrUnknownLayoutField flags a layout cell referencing a missing field.
	ErrUnknownLayoutField = errors.New("model: layout references unknown field")
	// ErrMissingFieldID flags a field without an id.
	ErrMissingFieldID = errors.New("model: field id is required")
)

// Parse decodes a JSON or YAML form definition and normalises it. source is
// only used in error messages.
func Parse(data []byte, source string) (FormDefinition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return FormDefinition{}, fmt.Errorf("%w: %s", ErrEmptyDefinition, source)
	}

	var def FormDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		def = FormDefinition{}
		if yerr := yaml.Unmarshal(data, &def); yerr != nil {
			return FormDefinition{}, fmt.Errorf("model: parse %s: invalid JSON or YAML", source)
		}
	}

	if err := Normalize(&def); err != nil {
		return FormDefinition{}, fmt.Errorf("model: %s: %w", source, err)
	}
	return def, nil
}

// LoadFile reads and parses a definition from disk.
func LoadFile(name string) (FormDefinition, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return FormDefinition{}, fmt.Errorf("model: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// LoadFS walks fsys and parses every JSON/YAML definition it finds, keyed by
// the definition id (or the file stem when the id is empty).
func LoadFS(fsys fs.FS) (map[string]FormDefinition, error) {
	out := make(map[string]FormDefinition)
	if fsys == nil {
		return out, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("model: read %s: %w", p, err)
		}
		def, err := Parse(data, p)
		if err != nil {
			return err
		}
		if def.ID == "" {
			def.ID = strings.TrimSuffix(path.Base(p), path.Ext(p))
		}
		if _, exists := out[def.ID]; exists {
			return fmt.Errorf("model: duplicate form %q (file %s)", def.ID, p)
		}
		out[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Normalize trims identifiers and checks the structural invariants: every
// field has a unique id and every layout cell references a known field.
func Normalize(def *FormDefinition) error {
	if def == nil {
		return nil
	}
	def.ID = strings.TrimSpace(def.ID)
	def.Name = strings.TrimSpace(def.Name)
	def.URL = strings.TrimSpace(def.URL)

	seen := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		field := &def.Fields[i]
		field.ID = strings.TrimSpace(field.ID)
		if field.ID == "" {
			return fmt.Errorf("%w (position %d)", ErrMissingFieldID, i)
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateField, field.ID)
		}
		seen[field.ID] = struct{}{}
		if field.Kind == "" {
			field.Kind = FieldKindText
		}
	}

	for r, row := range def.Rows {
		for c, cell := range row.Cells {
			for k, id := range cell.Fields {
				id = strings.TrimSpace(id)
				if _, ok := seen[id]; !ok {
					return fmt.Errorf("%w: %q (row %d, cell %d)", ErrUnknownLayoutField, id, r, c)
				}
				def.Rows[r].Cells[c].Fields[k] = id
			}
		}
	}
	return nil
}

func isDefinitionFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
