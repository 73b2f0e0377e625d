package inventory

import (
	"context"
	"fmt"

	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"
)

// LowStockAlertHandler handles StockLowDetected events and forwards them as
// stock alerts
type LowStockAlertHandler struct {
	logger          *zap.Logger
	notifier        StockAlertNotifier
	businessMetrics *telemetry.BusinessMetrics
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	StorageItemID  string `json:"storage_item_id"`
	Name           string `json:"name"`
	ArticleNumber  string `json:"article_number"`
	ItemType       string `json:"item_type"`
	EffectiveStock string `json:"effective_stock"`
	ReorderPoint   string `json:"reorder_point"`
	AlertType      string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockAlertHandler creates a new handler for low-stock events
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockAlertHandler) WithNotifier(notifier StockAlertNotifier) *LowStockAlertHandler {
	h.notifier = notifier
	return h
}

// WithBusinessMetrics counts every alert handled
func (h *LowStockAlertHandler) WithBusinessMetrics(bm *telemetry.BusinessMetrics) *LowStockAlertHandler {
	h.businessMetrics = bm
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockLowDetected}
}

// Handle processes a StockLowDetectedEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowEvent, ok := event.(*inventory.StockLowDetectedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockLowDetected),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockLowDetected, event.EventType())
	}

	alertType := AlertTypeLowStock
	if lowEvent.TotalQuantity == 0 {
		alertType = AlertTypeOutOfStock
	}

	alert := StockAlert{
		StorageItemID:  lowEvent.StorageItemID.String(),
		Name:           lowEvent.Name,
		ArticleNumber:  lowEvent.ArticleNumber,
		ItemType:       string(lowEvent.ItemType),
		EffectiveStock: lowEvent.EffectiveStock.String(),
		ReorderPoint:   lowEvent.ReorderPoint.String(),
		AlertType:      alertType,
	}

	h.logger.Warn("stock at or below reorder point",
		zap.String("storage_item_id", alert.StorageItemID),
		zap.String("article_number", alert.ArticleNumber),
		zap.String("effective_stock", alert.EffectiveStock),
		zap.String("reorder_point", alert.ReorderPoint),
		zap.String("alert_type", alertType),
	)

	if h.businessMetrics != nil {
		h.businessMetrics.RecordLowStockDetected(ctx, alert.ItemType)
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// notification failure does not fail event handling
			h.logger.Error("failed to send stock alert notification",
				zap.String("storage_item_id", alert.StorageItemID),
				zap.Error(err),
			)
		}
	}

	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("name", alert.Name),
		zap.String("article_number", alert.ArticleNumber),
		zap.String("effective_stock", alert.EffectiveStock),
		zap.String("reorder_point", alert.ReorderPoint),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
