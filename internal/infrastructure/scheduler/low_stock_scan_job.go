package scheduler

import (
	"context"

	appinventory "github.com/mfgadmin/backend/internal/application/inventory"
	"go.uber.org/zap"
)

// JobLowStockScan is the name of the periodic low-stock scan
const JobLowStockScan = "low-stock-scan"

// LowStockScanner scans storage items and raises low-stock events
type LowStockScanner interface {
	ScanLowStock(ctx context.Context) (*appinventory.LowStockScanResult, error)
}

// LowStockScanJob wraps the scanner as a scheduled job
func LowStockScanJob(scanner LowStockScanner, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		result, err := scanner.ScanLowStock(ctx)
		if err != nil {
			return err
		}
		logger.Info("Low-stock scan finished",
			zap.Int("checked", result.Checked),
			zap.Int("low_stock", result.LowStock),
		)
		return nil
	}
}

// RegisterLowStockScan schedules the scan on the given cron expression
func RegisterLowStockScan(s *CronScheduler, spec string, scanner LowStockScanner, logger *zap.Logger) error {
	return s.Register(JobLowStockScan, spec, LowStockScanJob(scanner, logger))
}
