package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	txScope          TransactionScope
	orderRepo        trade.PurchaseOrderRepository
	supplierRepo     partner.SupplierRepository
	supplierItemRepo partner.SupplierItemRepository
	clock            shared.Clock
	logger           *zap.Logger
	eventPublisher   shared.EventPublisher
	businessMetrics  *telemetry.BusinessMetrics
}

// NewPurchaseOrderService creates a new PurchaseOrderService. Reads go
// through the given repositories, every state change through txScope.
func NewPurchaseOrderService(
	txScope TransactionScope,
	orderRepo trade.PurchaseOrderRepository,
	supplierRepo partner.SupplierRepository,
	supplierItemRepo partner.SupplierItemRepository,
	log *zap.Logger,
) *PurchaseOrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseOrderService{
		txScope:          txScope,
		orderRepo:        orderRepo,
		supplierRepo:     supplierRepo,
		supplierItemRepo: supplierItemRepo,
		clock:            shared.SystemClock{},
		logger:           log,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *PurchaseOrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetClock replaces the clock "today" is taken from
func (s *PurchaseOrderService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// Create creates a new draft purchase order with a generated order number
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create")
	defer span.End()

	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var order *trade.PurchaseOrder
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ensureSupplier(ctx, repos.SupplierRepo(), req.SupplierID); err != nil {
			return err
		}
		lines, err := s.resolveLines(ctx, repos, req.SupplierID, req.Items)
		if err != nil {
			return err
		}

		today := shared.DateOf(s.clock.Now())
		orderNumber, err := repos.PurchaseOrderRepo().GenerateOrderNumber(ctx, today)
		if err != nil {
			return err
		}

		order, err = trade.NewPurchaseOrder(orderNumber, today, trade.OrderDraft{
			SupplierID:           req.SupplierID,
			ExpectedDeliveryDate: expected,
			Notes:                req.Notes,
			Lines:                lines,
		})
		if err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().Save(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, order)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderCreated(ctx, order.TotalAmount)
	}
	s.logTransition(ctx, "Purchase order created", order)
	telemetry.SetOK(span)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderListItemResponse, int64, error) {
	repoFilter, err := filter.toRepoFilter()
	if err != nil {
		return nil, 0, err
	}

	orders, err := s.orderRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]PurchaseOrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToPurchaseOrderListItemResponse(&orders[i])
	}
	return items, total, nil
}

// Update replaces supplier, expected date, notes and items of a draft order
func (s *PurchaseOrderService) Update(ctx context.Context, orderID uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, orderID, "update", func(repos TransactionalRepositories, order *trade.PurchaseOrder) error {
		if err := order.Status.Guard(trade.ActionUpdate); err != nil {
			return err
		}
		if req.SupplierID != order.SupplierID {
			if err := s.ensureSupplier(ctx, repos.SupplierRepo(), req.SupplierID); err != nil {
				return err
			}
		}
		lines, err := s.resolveLines(ctx, repos, req.SupplierID, req.Items)
		if err != nil {
			return err
		}
		return order.Update(trade.OrderDraft{
			SupplierID:           req.SupplierID,
			ExpectedDeliveryDate: expected,
			Notes:                req.Notes,
			Lines:                lines,
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Delete deletes a draft purchase order
func (s *PurchaseOrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	var order *trade.PurchaseOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if err := order.EnsureDeletable(); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}

	s.logTransition(ctx, "Purchase order deleted", order)
	return nil
}

// Send sends a draft to the supplier. The expected delivery date is
// recomputed from the supplier's and the item links' lead times with today
// as anchor.
func (s *PurchaseOrderService) Send(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.transition(ctx, orderID, "send", func(repos TransactionalRepositories, order *trade.PurchaseOrder) error {
		today := shared.DateOf(s.clock.Now())
		estimate, err := s.estimate(ctx, repos.SupplierRepo(), repos.SupplierItemRepo(), order, today)
		if err != nil {
			return err
		}
		return order.Send(today, estimate)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Confirm records the supplier's acknowledgement of a sent order
func (s *PurchaseOrderService) Confirm(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.transition(ctx, orderID, "confirm", func(_ TransactionalRepositories, order *trade.PurchaseOrder) error {
		return order.Confirm()
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Cancel cancels an order nothing has been received for
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	order, err := s.transition(ctx, orderID, "cancel", func(_ TransactionalRepositories, order *trade.PurchaseOrder) error {
		return order.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// PreviewDeliveryEstimate returns the estimate Send would apply if the
// order were sent today
func (s *PurchaseOrderService) PreviewDeliveryEstimate(ctx context.Context, orderID uuid.UUID) (*DeliveryEstimateResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}

	estimate, err := s.estimate(ctx, s.supplierRepo, s.supplierItemRepo, order, shared.DateOf(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	response := ToDeliveryEstimateResponse(estimate)
	return &response, nil
}

// GetStatusSummary returns purchase order counts per status
func (s *PurchaseOrderService) GetStatusSummary(ctx context.Context) (*PurchaseOrderStatusSummary, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary := ToStatusSummary(counts)
	return &summary, nil
}

// transition loads and locks an order, applies fn and saves it with the
// optimistic version check, all in one transaction. Events are published
// after commit.
func (s *PurchaseOrderService) transition(
	ctx context.Context,
	orderID uuid.UUID,
	action string,
	fn func(repos TransactionalRepositories, order *trade.PurchaseOrder) error,
) (*trade.PurchaseOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", action)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	var order *trade.PurchaseOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if err := fn(repos, order); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterTransition(ctx, span, "Purchase order "+action, order)
	return order, nil
}

func (s *PurchaseOrderService) afterTransition(ctx context.Context, span trace.Span, msg string, order *trade.PurchaseOrder) {
	s.publishEvents(ctx, order)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderTransition(ctx, order.Status.String())
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, order.Status.String())
	telemetry.SetOK(span)
	s.logTransition(ctx, msg, order)
}

// ensureSupplier checks that orders may be placed with the supplier
func (s *PurchaseOrderService) ensureSupplier(ctx context.Context, repo partner.SupplierRepository, supplierID uuid.UUID) error {
	supplier, err := repo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("INVALID_SUPPLIER", fmt.Sprintf("Supplier %s not found", supplierID))
		}
		return err
	}
	if !supplier.IsActive {
		return shared.NewValidationError("INACTIVE_SUPPLIER", fmt.Sprintf("Supplier %s is not active", supplier.Name))
	}
	return nil
}

// resolveLines checks that every referenced storage item exists and fills
// in missing unit prices from the supplier links. Nothing is written.
func (s *PurchaseOrderService) resolveLines(ctx context.Context, repos TransactionalRepositories, supplierID uuid.UUID, inputs []PurchaseOrderItemInput) ([]trade.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.StorageItemID)
	}

	found, err := repos.StorageItemRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for i := range found {
		known[found[i].ID] = struct{}{}
	}

	links, err := repos.SupplierItemRepo().FindBySupplierAndStorageItems(ctx, supplierID, ids)
	if err != nil {
		return nil, err
	}
	supplierPrices := make(map[uuid.UUID]decimal.Decimal, len(links))
	for i := range links {
		supplierPrices[links[i].StorageItemID] = links[i].UnitPrice
	}

	lines := make([]trade.OrderLine, len(inputs))
	for idx, in := range inputs {
		if _, ok := known[in.StorageItemID]; !ok {
			return nil, shared.NewValidationError("INVALID_STORAGE_ITEM",
				fmt.Sprintf("Item %d: storage item %s not found", idx+1, in.StorageItemID))
		}

		line := trade.OrderLine{StorageItemID: in.StorageItemID, Quantity: in.Quantity, Notes: in.Notes}
		switch price, ok := supplierPrices[in.StorageItemID]; {
		case in.UnitPrice != nil:
			line.UnitPrice = *in.UnitPrice
		case ok:
			line.UnitPrice = price
		default:
			line.UnitPrice, err = s.preferredPrice(ctx, repos.SupplierItemRepo(), in.StorageItemID)
			if err != nil {
				return nil, err
			}
		}
		lines[idx] = line
	}
	return lines, nil
}

func (s *PurchaseOrderService) preferredPrice(ctx context.Context, repo partner.SupplierItemRepository, storageItemID uuid.UUID) (decimal.Decimal, error) {
	link, err := repo.FindPreferred(ctx, storageItemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return link.UnitPrice, nil
}

// estimate computes the delivery estimate of order anchored at today
func (s *PurchaseOrderService) estimate(
	ctx context.Context,
	supplierRepo partner.SupplierRepository,
	supplierItemRepo partner.SupplierItemRepository,
	order *trade.PurchaseOrder,
	today time.Time,
) (trade.DeliveryEstimate, error) {
	var supplierDays *int
	supplier, err := supplierRepo.FindByID(ctx, order.SupplierID)
	switch {
	case err == nil:
		supplierDays = supplier.DeliveryTimeDays
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("Supplier of purchase order not found, estimating from item lead times only",
			zap.String("order_id", order.ID.String()),
			zap.String("supplier_id", order.SupplierID.String()),
		)
	default:
		return trade.DeliveryEstimate{}, err
	}

	links, err := supplierItemRepo.FindBySupplierAndStorageItems(ctx, order.SupplierID, order.StorageItemIDs())
	if err != nil {
		return trade.DeliveryEstimate{}, err
	}
	byItem := partner.LeadTimesByStorageItem(links)

	leadTimes := make([]*int, 0, len(order.Items))
	for _, item := range order.Items {
		leadTimes = append(leadTimes, byItem[item.StorageItemID])
	}
	return trade.EstimateDelivery(supplierDays, leadTimes, today), nil
}

func (s *PurchaseOrderService) publishEvents(ctx context.Context, order *trade.PurchaseOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	publishAfterCommit(ctx, s.eventPublisher, s.logger, events)
}

func (s *PurchaseOrderService) logTransition(ctx context.Context, msg string, order *trade.PurchaseOrder) {
	logger.WithLogger(ctx, s.logger).Info(msg,
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status.String()),
	)
}

// publishAfterCommit publishes events of a committed transaction. The state
// change already happened, so a publishing failure is logged, not returned.
func publishAfterCommit(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.WithLogger(ctx, log).Error("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// orderLookupError names the resource of a repository not-found error
func orderLookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Purchase order")
	}
	return err
}
