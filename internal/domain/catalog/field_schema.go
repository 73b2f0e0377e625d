package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// FieldSchema is the ordered set of custom field descriptors of a category
type FieldSchema []FieldDescriptor

// NewFieldSchema validates every descriptor and rejects duplicate keys
func NewFieldSchema(descriptors ...FieldDescriptor) (FieldSchema, error) {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[d.Key]; dup {
			return nil, shared.NewValidationError("DUPLICATE_FIELD_KEY", fmt.Sprintf("Field key %s is defined twice", d.Key))
		}
		seen[d.Key] = struct{}{}
	}
	return FieldSchema(descriptors), nil
}

// Lookup returns the descriptor for key
func (s FieldSchema) Lookup(key string) (FieldDescriptor, bool) {
	for _, d := range s {
		if d.Key == key {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// Validate checks values against the schema and returns the normalized map.
// Unknown keys and missing required fields are rejected; nil values are
// treated as absent. All problems are collected so the caller sees every
// offending field at once.
func (s FieldSchema) Validate(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	var problems []string

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values[key]
		d, ok := s.Lookup(key)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown field %s", key))
			continue
		}
		if value == nil {
			continue
		}
		normalized, err := d.Normalize(value)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		out[key] = normalized
	}

	for _, d := range s {
		if !d.Constraints.Required {
			continue
		}
		if _, ok := out[d.Key]; !ok {
			problems = append(problems, fmt.Sprintf("%s is required", d.Label))
		}
	}

	if len(problems) > 0 {
		return nil, shared.NewValidationError(shared.CodeValidation, strings.Join(problems, "; "))
	}
	return out, nil
}
