package catalog

import (
	"encoding/json"
	"testing"

	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func testSchema(t *testing.T) FieldSchema {
	t.Helper()
	schema, err := NewFieldSchema(
		FieldDescriptor{Key: "coating", Label: "Coating", Type: FieldTypeSelect, Constraints: FieldConstraints{Options: []string{"TiN", "TiAlN", "uncoated"}}},
		FieldDescriptor{Key: "diameter_mm", Label: "Diameter", Type: FieldTypeNumber, Constraints: FieldConstraints{Required: true, Min: floatPtr(0.1), Max: floatPtr(100)}},
		FieldDescriptor{Key: "note", Label: "Note", Type: FieldTypeText, Constraints: FieldConstraints{MaxLength: 10}},
		FieldDescriptor{Key: "calibrated", Label: "Calibrated", Type: FieldTypeCheckbox},
	)
	require.NoError(t, err)
	return schema
}

func TestNewFieldSchema(t *testing.T) {
	t.Run("rejects duplicate keys", func(t *testing.T) {
		_, err := NewFieldSchema(
			FieldDescriptor{Key: "a", Label: "A", Type: FieldTypeText},
			FieldDescriptor{Key: "a", Label: "A again", Type: FieldTypeText},
		)
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("rejects select without options", func(t *testing.T) {
		_, err := NewFieldSchema(FieldDescriptor{Key: "grade", Label: "Grade", Type: FieldTypeSelect})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires options")
	})

	t.Run("rejects inverted number range", func(t *testing.T) {
		_, err := NewFieldSchema(FieldDescriptor{Key: "len", Label: "Length", Type: FieldTypeNumber,
			Constraints: FieldConstraints{Min: floatPtr(5), Max: floatPtr(1)}})
		require.Error(t, err)
	})

	t.Run("rejects unknown type and bad key", func(t *testing.T) {
		_, err := NewFieldSchema(FieldDescriptor{Key: "x", Label: "X", Type: "date"})
		require.Error(t, err)
		_, err = NewFieldSchema(FieldDescriptor{Key: "Bad Key", Label: "X", Type: FieldTypeText})
		require.Error(t, err)
	})
}

func TestFieldSchema_Validate(t *testing.T) {
	schema := testSchema(t)

	t.Run("normalizes valid values", func(t *testing.T) {
		out, err := schema.Validate(map[string]any{
			"coating":     "TiN",
			"diameter_mm": 12,
			"note":        "sharp",
			"calibrated":  true,
		})
		require.NoError(t, err)
		assert.Equal(t, "TiN", out["coating"])
		assert.Equal(t, float64(12), out["diameter_mm"])
		assert.Equal(t, true, out["calibrated"])
	})

	t.Run("accepts numbers decoded as json.Number", func(t *testing.T) {
		out, err := schema.Validate(map[string]any{"diameter_mm": json.Number("8")})
		require.NoError(t, err)
		assert.Equal(t, float64(8), out["diameter_mm"])

		_, err = schema.Validate(map[string]any{"diameter_mm": json.Number("8mm")})
		assert.True(t, shared.IsValidationError(err))
	})

	tests := []struct {
		name    string
		values  map[string]any
		message string
	}{
		{"missing required", map[string]any{"coating": "TiN"}, "Diameter is required"},
		{"unknown key", map[string]any{"diameter_mm": 3.0, "colour": "red"}, "unknown field colour"},
		{"number below min", map[string]any{"diameter_mm": 0.0}, "at least 0.1"},
		{"number above max", map[string]any{"diameter_mm": 101.0}, "at most 100"},
		{"option not allowed", map[string]any{"diameter_mm": 3.0, "coating": "gold"}, "must be one of"},
		{"text too long", map[string]any{"diameter_mm": 3.0, "note": "much too long text"}, "cannot exceed 10"},
		{"checkbox wrong type", map[string]any{"diameter_mm": 3.0, "calibrated": "yes"}, "true or false"},
		{"number wrong type", map[string]any{"diameter_mm": "3"}, "must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Validate(tt.values)
			require.Error(t, err)
			assert.True(t, shared.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("nil value counts as absent", func(t *testing.T) {
		out, err := schema.Validate(map[string]any{"diameter_mm": 1.5, "note": nil})
		require.NoError(t, err)
		_, present := out["note"]
		assert.False(t, present)
	})
}

func TestNewCategory(t *testing.T) {
	category, err := NewCategory("  Milling cutters ", FieldDescriptor{Key: "flutes", Label: "Flutes", Type: FieldTypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "Milling cutters", category.Name)
	assert.Len(t, category.Fields, 1)

	_, err = NewCategory("")
	require.Error(t, err)
}
