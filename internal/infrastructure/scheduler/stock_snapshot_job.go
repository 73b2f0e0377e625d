package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	appinventory "github.com/mfgadmin/backend/internal/application/inventory"
	"github.com/mfgadmin/backend/internal/infrastructure/export"
	"go.uber.org/zap"
)

// JobStockSnapshot is the name of the daily valuation snapshot
const JobStockSnapshot = "stock-snapshot"

// StockExporter lists every storage item with its evaluated stock
type StockExporter interface {
	ExportAll(ctx context.Context, filter appinventory.StorageItemListFilter) ([]appinventory.StorageItemResponse, error)
}

// SnapshotArchive stores snapshot workbooks
type SnapshotArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// StockSnapshotJob writes the valuation of every storage item to an xlsx
// workbook and archives it once per UTC day under prefix
func StockSnapshotJob(exporter StockExporter, archive SnapshotArchive, prefix string, now func() time.Time, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		key := prefix + export.SnapshotFileName(now().UTC())

		exists, err := archive.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check snapshot %s: %w", key, err)
		}
		if exists {
			logger.Info("Stock snapshot already archived", zap.String("key", key))
			return nil
		}

		items, err := exporter.ExportAll(ctx, appinventory.StorageItemListFilter{})
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := export.WriteStorageItems(&buf, items); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := archive.Put(ctx, key, buf.Bytes(), export.ContentTypeXLSX); err != nil {
			return err
		}

		logger.Info("Stock snapshot archived",
			zap.String("key", key),
			zap.Int("items", len(items)),
			zap.Int("bytes", buf.Len()),
		)
		return nil
	}
}

// RegisterStockSnapshot schedules the snapshot on the given cron expression
func RegisterStockSnapshot(s *CronScheduler, spec string, exporter StockExporter, archive SnapshotArchive, prefix string, logger *zap.Logger) error {
	return s.Register(JobStockSnapshot, spec, StockSnapshotJob(exporter, archive, prefix, time.Now, logger))
}
