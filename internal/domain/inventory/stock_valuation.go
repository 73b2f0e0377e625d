package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// StockValuation is the derived stock view of a storage item. It is never
// stored; it is computed from the quantities every time an item is read.
type StockValuation struct {
	TotalQuantity     int
	EffectiveStock    decimal.Decimal
	IsLowStock        bool
	StockLevelPercent *decimal.Decimal
}

// Evaluate computes total quantity, effective stock, the low-stock flag and
// the stock level percentage of an item snapshot.
//
// Tools, inserts and accessories are weighted by wear condition. Clamping
// devices and fixtures count every unit. Measuring equipment only records
// presence, so its effective stock is always 1. Only weighted types raise
// the low-stock flag or report a percentage.
func Evaluate(item StorageItem) StockValuation {
	qNew := nonNegative(item.QuantityNew)
	qUsed := nonNegative(item.QuantityUsed)
	qReground := nonNegative(item.QuantityReground)
	total := qNew + qUsed + qReground

	v := StockValuation{TotalQuantity: total}

	switch {
	case item.ItemType.IsWeighted():
		v.EffectiveStock = decimal.NewFromInt(int64(qNew)).Mul(weightOr(item.WeightNew, DefaultWeightNew)).
			Add(decimal.NewFromInt(int64(qUsed)).Mul(weightOr(item.WeightUsed, DefaultWeightUsed))).
			Add(decimal.NewFromInt(int64(qReground)).Mul(weightOr(item.WeightReground, DefaultWeightReground)))

		if item.EnableLowStockAlert && item.ReorderPoint != nil {
			v.IsLowStock = v.EffectiveStock.LessThanOrEqual(*item.ReorderPoint)
		}
		if item.MaxQuantity != nil && item.MaxQuantity.IsPositive() {
			pct := decimal.NewFromInt(int64(total)).Div(*item.MaxQuantity).Mul(hundred).Round(2)
			v.StockLevelPercent = &pct
		}

	case item.ItemType == ItemTypeMeasuringEquipment:
		v.EffectiveStock = decimal.NewFromInt(1)

	default:
		v.EffectiveStock = decimal.NewFromInt(int64(total))
	}

	return v
}

func weightOr(w *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if w == nil || w.IsNegative() {
		return def
	}
	return *w
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
