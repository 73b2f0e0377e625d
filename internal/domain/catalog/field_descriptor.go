package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// FieldType is the discriminator of a custom field descriptor
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
)

// IsValid checks if the field type is known
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeSelect, FieldTypeCheckbox:
		return true
	}
	return false
}

// FieldConstraints holds the constraints a descriptor may carry. Which ones
// apply depends on the descriptor's type: MaxLength for text, Min/Max for
// number, Options for select.
type FieldConstraints struct {
	Required  bool     `json:"required,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// FieldDescriptor defines one custom field of a storage category
type FieldDescriptor struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Type        FieldType        `json:"type"`
	Constraints FieldConstraints `json:"constraints"`
}

var fieldKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)

// Validate checks the descriptor itself is well formed
func (d FieldDescriptor) Validate() error {
	if !fieldKeyPattern.MatchString(d.Key) {
		return shared.NewValidationError("INVALID_FIELD_KEY", fmt.Sprintf("Field key %q must be lower snake case and at most 50 characters", d.Key))
	}
	if strings.TrimSpace(d.Label) == "" {
		return shared.NewValidationError("INVALID_FIELD_LABEL", fmt.Sprintf("Field %s requires a label", d.Key))
	}
	if !d.Type.IsValid() {
		return shared.NewValidationError("INVALID_FIELD_TYPE", fmt.Sprintf("Field %s has unknown type %q", d.Key, d.Type))
	}

	c := d.Constraints
	switch d.Type {
	case FieldTypeSelect:
		if len(c.Options) == 0 {
			return shared.NewValidationError("INVALID_FIELD_OPTIONS", fmt.Sprintf("Select field %s requires options", d.Key))
		}
	case FieldTypeNumber:
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return shared.NewValidationError("INVALID_FIELD_RANGE", fmt.Sprintf("Field %s has min greater than max", d.Key))
		}
	case FieldTypeText:
		if c.MaxLength < 0 {
			return shared.NewValidationError("INVALID_FIELD_LENGTH", fmt.Sprintf("Field %s has a negative max length", d.Key))
		}
	}
	return nil
}

// Normalize checks value against the descriptor and returns it in canonical
// form: string for text and select, float64 for number, bool for checkbox.
func (d FieldDescriptor) Normalize(value any) (any, error) {
	switch d.Type {
	case FieldTypeText:
		s, ok := value.(string)
		if !ok {
			return nil, d.typeError("a string")
		}
		if d.Constraints.MaxLength > 0 && len([]rune(s)) > d.Constraints.MaxLength {
			return nil, shared.NewValidationError("FIELD_TOO_LONG", fmt.Sprintf("%s cannot exceed %d characters", d.Label, d.Constraints.MaxLength))
		}
		return s, nil

	case FieldTypeNumber:
		n, ok := toFloat(value)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, d.typeError("a number")
		}
		if d.Constraints.Min != nil && n < *d.Constraints.Min {
			return nil, shared.NewValidationError("FIELD_OUT_OF_RANGE", fmt.Sprintf("%s must be at least %v", d.Label, *d.Constraints.Min))
		}
		if d.Constraints.Max != nil && n > *d.Constraints.Max {
			return nil, shared.NewValidationError("FIELD_OUT_OF_RANGE", fmt.Sprintf("%s must be at most %v", d.Label, *d.Constraints.Max))
		}
		return n, nil

	case FieldTypeSelect:
		s, ok := value.(string)
		if !ok {
			return nil, d.typeError("a string")
		}
		for _, opt := range d.Constraints.Options {
			if opt == s {
				return s, nil
			}
		}
		return nil, shared.NewValidationError("FIELD_INVALID_OPTION", fmt.Sprintf("%s must be one of %s", d.Label, strings.Join(d.Constraints.Options, ", ")))

	case FieldTypeCheckbox:
		b, ok := value.(bool)
		if !ok {
			return nil, d.typeError("true or false")
		}
		return b, nil
	}
	return nil, d.typeError("a known type")
}

func (d FieldDescriptor) typeError(expected string) error {
	return shared.NewValidationError("FIELD_TYPE_MISMATCH", fmt.Sprintf("%s must be %s", d.Label, expected))
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
