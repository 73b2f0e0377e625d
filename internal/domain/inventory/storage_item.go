package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemType is the kind of physical item kept in storage
type ItemType string

const (
	ItemTypeTool               ItemType = "tool"
	ItemTypeInsert             ItemType = "insert"
	ItemTypeAccessory          ItemType = "accessory"
	ItemTypeClampingDevice     ItemType = "clamping_device"
	ItemTypeFixture            ItemType = "fixture"
	ItemTypeMeasuringEquipment ItemType = "measuring_equipment"
)

// IsValid checks if the item type is known
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeTool, ItemTypeInsert, ItemTypeAccessory,
		ItemTypeClampingDevice, ItemTypeFixture, ItemTypeMeasuringEquipment:
		return true
	}
	return false
}

// AllItemTypes returns every item type
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemTypeTool, ItemTypeInsert, ItemTypeAccessory,
		ItemTypeClampingDevice, ItemTypeFixture, ItemTypeMeasuringEquipment,
	}
}

// IsWeighted reports whether stock of this type is valued by wear condition
func (t ItemType) IsWeighted() bool {
	return t == ItemTypeTool || t == ItemTypeInsert || t == ItemTypeAccessory
}

// IsCounted reports whether stock of this type is a plain unweighted count
func (t ItemType) IsCounted() bool {
	return t == ItemTypeClampingDevice || t == ItemTypeFixture
}

// Condition is the wear condition bucket a unit of stock is kept in
type Condition string

const (
	ConditionNew      Condition = "new"
	ConditionUsed     Condition = "used"
	ConditionReground Condition = "reground"
)

// IsValid checks if the condition is known
func (c Condition) IsValid() bool {
	return c == ConditionNew || c == ConditionUsed || c == ConditionReground
}

// ParseCondition parses a condition, defaulting to new when s is empty
func ParseCondition(s string) (Condition, error) {
	if strings.TrimSpace(s) == "" {
		return ConditionNew, nil
	}
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", shared.NewValidationError("INVALID_CONDITION", fmt.Sprintf("Unknown stock condition %q", s))
	}
	return c, nil
}

// Default condition weights applied when an item does not set its own
var (
	DefaultWeightNew      = decimal.NewFromFloat(1.0)
	DefaultWeightUsed     = decimal.NewFromFloat(0.5)
	DefaultWeightReground = decimal.NewFromFloat(0.8)
)

// StorageItem is the stock record of one tool, insert, accessory, clamping
// device, fixture or piece of measuring equipment. Quantities are held per
// wear condition and are never negative.
type StorageItem struct {
	shared.BaseAggregateRoot
	Name                string
	ArticleNumber       string
	ItemType            ItemType
	CategoryID          *uuid.UUID
	QuantityNew         int
	QuantityUsed        int
	QuantityReground    int
	WeightNew           *decimal.Decimal
	WeightUsed          *decimal.Decimal
	WeightReground      *decimal.Decimal
	EnableLowStockAlert bool
	ReorderPoint        *decimal.Decimal
	MaxQuantity         *decimal.Decimal
	CustomFields        map[string]any
}

// NewStorageItem creates an empty storage item
func NewStorageItem(name, articleNumber string, itemType ItemType) (*StorageItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Storage item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_NAME", "Storage item name cannot exceed 200 characters")
	}
	if !itemType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ITEM_TYPE", fmt.Sprintf("Unknown item type %q", itemType))
	}

	return &StorageItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ArticleNumber:     strings.TrimSpace(articleNumber),
		ItemType:          itemType,
		CustomFields:      map[string]any{},
	}, nil
}

// SetWeights overrides the condition weights; nil restores the default
func (s *StorageItem) SetWeights(weightNew, weightUsed, weightReground *decimal.Decimal) error {
	for _, w := range []*decimal.Decimal{weightNew, weightUsed, weightReground} {
		if w != nil && w.IsNegative() {
			return shared.NewValidationError("INVALID_WEIGHT", "Condition weights cannot be negative")
		}
	}
	s.WeightNew = weightNew
	s.WeightUsed = weightUsed
	s.WeightReground = weightReground
	s.UpdatedAt = time.Now()
	return nil
}

// SetStockThresholds configures the low-stock alert and the capacity used
// for the stock level percentage
func (s *StorageItem) SetStockThresholds(enableAlert bool, reorderPoint, maxQuantity *decimal.Decimal) error {
	if reorderPoint != nil && reorderPoint.IsNegative() {
		return shared.NewValidationError("INVALID_REORDER_POINT", "Reorder point cannot be negative")
	}
	if maxQuantity != nil && maxQuantity.IsNegative() {
		return shared.NewValidationError("INVALID_MAX_QUANTITY", "Max quantity cannot be negative")
	}
	s.EnableLowStockAlert = enableAlert
	s.ReorderPoint = reorderPoint
	s.MaxQuantity = maxQuantity
	s.UpdatedAt = time.Now()
	return nil
}

// SetQuantities replaces the on-hand quantities, as done by a stock count
func (s *StorageItem) SetQuantities(qNew, qUsed, qReground int) error {
	if qNew < 0 || qUsed < 0 || qReground < 0 {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "Stock quantities cannot be negative")
	}
	s.QuantityNew = qNew
	s.QuantityUsed = qUsed
	s.QuantityReground = qReground
	s.UpdatedAt = time.Now()
	return nil
}

// QuantityOf returns the on-hand quantity of one condition bucket
func (s *StorageItem) QuantityOf(c Condition) int {
	switch c {
	case ConditionUsed:
		return s.QuantityUsed
	case ConditionReground:
		return s.QuantityReground
	}
	return s.QuantityNew
}

// ReceiveStock credits goods received against a purchase order to the given
// condition bucket
func (s *StorageItem) ReceiveStock(condition Condition, quantity int, orderID uuid.UUID) error {
	if !condition.IsValid() {
		return shared.NewValidationError("INVALID_CONDITION", fmt.Sprintf("Unknown stock condition %q", condition))
	}
	if quantity <= 0 {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "Received quantity must be positive")
	}

	before := s.QuantityOf(condition)
	switch condition {
	case ConditionNew:
		s.QuantityNew += quantity
	case ConditionUsed:
		s.QuantityUsed += quantity
	case ConditionReground:
		s.QuantityReground += quantity
	}
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewStockReceivedEvent(s, condition, quantity, before, orderID))
	return nil
}

// SetCustomFields stores already-normalized custom field values
func (s *StorageItem) SetCustomFields(values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	s.CustomFields = values
	s.UpdatedAt = time.Now()
}

// Valuation evaluates the current quantities
func (s *StorageItem) Valuation() StockValuation {
	return Evaluate(*s)
}
