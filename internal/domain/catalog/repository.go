package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository reads storage categories and their field schemas
type CategoryRepository interface {
	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}
