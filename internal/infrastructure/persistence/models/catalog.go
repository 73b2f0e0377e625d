package models

import (
	"github.com/mfgadmin/backend/internal/domain/catalog"
	"gorm.io/datatypes"
)

// CategoryModel is the persistence model for storage categories
type CategoryModel struct {
	BaseModel
	Name   string                                    `gorm:"type:varchar(100);not null"`
	Fields datatypes.JSONType[[]catalog.FieldDescriptor] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "storage_categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Fields:     catalog.FieldSchema(m.Fields.Data()),
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name}
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Fields = datatypes.NewJSONType([]catalog.FieldDescriptor(c.Fields))
	return m
}
