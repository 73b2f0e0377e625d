// Package export renders storage item lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	appinventory "github.com/mfgadmin/backend/internal/application/inventory"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of the workbook written by WriteStorageItems
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const storageItemsSheet = "Storage items"

var storageItemsHeader = []interface{}{
	"id",
	"name",
	"article_number",
	"item_type",
	"quantity_new",
	"quantity_used",
	"quantity_reground",
	"total_quantity",
	"effective_stock",
	"reorder_point",
	"max_quantity",
	"stock_level_percent",
	"low_stock",
}

// StorageItemsFileName returns the download name of an export made at now
func StorageItemsFileName(now time.Time) string {
	return fmt.Sprintf("storage_items_%s.xlsx", now.Format("20060102_150405"))
}

// SnapshotFileName returns the name of the daily valuation snapshot for day
func SnapshotFileName(day time.Time) string {
	return fmt.Sprintf("storage_items_%s.xlsx", day.Format("20060102"))
}

// WriteStorageItems writes one row per item, with its evaluated stock, to an
// xlsx workbook
func WriteStorageItems(w io.Writer, items []appinventory.StorageItemResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, storageItemsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = storageItemsSheet

	header := storageItemsHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		row := []interface{}{
			item.ID.String(),
			item.Name,
			item.ArticleNumber,
			item.ItemType,
			item.QuantityNew,
			item.QuantityUsed,
			item.QuantityReground,
			item.TotalQuantity,
			item.EffectiveStock.InexactFloat64(),
			optionalNumber(item.ReorderPoint),
			optionalNumber(item.MaxQuantity),
			optionalNumber(item.StockLevelPercent),
			item.IsLowStock,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}

// optionalNumber leaves the cell empty for an unset value
func optionalNumber(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}
