package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records purchasing and stock activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal     *Counter
	orderAmountTotal      *Counter
	orderTransitionTotal  *Counter
	unitsReceivedTotal    *Counter
	lowStockDetectedTotal *Counter

	// Gauge metrics (point-in-time values)
	lowStockItems *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	lowStockProvider LowStockProvider
}

// LowStockProvider counts storage items currently at or below their reorder point.
type LowStockProvider interface {
	CountLowStock(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter            metric.Meter
	Logger           *zap.Logger
	CollectInterval  time.Duration // Default: 5 minutes
	LowStockProvider LowStockProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:            cfg.Meter,
		logger:           logger,
		stopChan:         make(chan struct{}),
		lowStockProvider: cfg.LowStockProvider,
	}

	var err error
	bm.orderCreatedTotal, err = NewCounter(cfg.Meter,
		"mfg_purchase_order_created_total",
		"Total number of purchase orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(cfg.Meter,
		"mfg_purchase_order_amount_total",
		"Total amount of created purchase orders in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderTransitionTotal, err = NewCounter(cfg.Meter,
		"mfg_purchase_order_transition_total",
		"Purchase order status transitions by resulting status",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	bm.unitsReceivedTotal, err = NewCounter(cfg.Meter,
		"mfg_stock_units_received_total",
		"Units credited to storage items by goods receipts",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockDetectedTotal, err = NewCounter(cfg.Meter,
		"mfg_stock_low_detected_total",
		"Low-stock signals raised for storage items",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockItems, err = NewGauge(cfg.Meter,
		"mfg_stock_low_items",
		"Storage items currently at or below their reorder point",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated records a new purchase order and its total amount.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, amount decimal.Decimal) {
	bm.orderCreatedTotal.Inc(ctx)
	bm.orderAmountTotal.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart())
}

// RecordOrderTransition records a purchase order reaching status.
func (bm *BusinessMetrics) RecordOrderTransition(ctx context.Context, status string) {
	bm.orderTransitionTotal.Inc(ctx, AttrOrderStatus.String(status))
}

// RecordUnitsReceived records units credited to the given condition bucket.
func (bm *BusinessMetrics) RecordUnitsReceived(ctx context.Context, condition string, quantity int) {
	if quantity <= 0 {
		return
	}
	bm.unitsReceivedTotal.Add(ctx, int64(quantity), AttrStockCondition.String(condition))
}

// RecordLowStockDetected records a low-stock signal for one storage item.
func (bm *BusinessMetrics) RecordLowStockDetected(ctx context.Context, itemType string) {
	bm.lowStockDetectedTotal.Inc(ctx, AttrItemType.String(itemType))
}

// RecordLowStockCount records the number of storage items below their reorder point.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockItems.Record(ctx, count)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It is non-blocking; use Stop to end collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectStockMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStockMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectStockMetrics(ctx context.Context) {
	if bm.lowStockProvider == nil {
		bm.logger.Debug("No low-stock provider configured, skipping stock metrics collection")
		return
	}

	count, err := bm.lowStockProvider.CountLowStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low-stock items", zap.Error(err))
		return
	}
	bm.RecordLowStockCount(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
