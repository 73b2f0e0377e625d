package catalog

import (
	"strings"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// Category groups storage items and owns the custom field schema their
// records are validated against. Editing the schema happens elsewhere; this
// context only reads it.
type Category struct {
	shared.BaseEntity
	Name   string
	Fields FieldSchema
}

// NewCategory creates a category with a validated field schema
func NewCategory(name string, fields ...FieldDescriptor) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("INVALID_CATEGORY_NAME", "Category name cannot exceed 100 characters")
	}
	schema, err := NewFieldSchema(fields...)
	if err != nil {
		return nil, err
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Fields:     schema,
	}, nil
}

// ValidateValues validates custom field values against this category's schema
func (c *Category) ValidateValues(values map[string]any) (map[string]any, error) {
	return c.Fields.Validate(values)
}
