package trade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const receiptKeyPrefix = "po-receive:"

// ReceivingProcessor books goods received against purchase orders. Each
// receipt runs in one transaction that locks the order and every storage
// item it credits, so ordered, received and on-hand quantities change
// together or not at all.
type ReceivingProcessor struct {
	txScope         TransactionScope
	idempotency     shared.IdempotencyStore
	idempotencyCfg  shared.IdempotencyConfig
	clock           shared.Clock
	logger          *zap.Logger
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewReceivingProcessor creates a new ReceivingProcessor
func NewReceivingProcessor(txScope TransactionScope, log *zap.Logger) *ReceivingProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReceivingProcessor{
		txScope:        txScope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
		clock:          shared.SystemClock{},
		logger:         log,
	}
}

// SetIdempotencyStore enables rejection of replayed Idempotency-Key values
func (p *ReceivingProcessor) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	p.idempotency = store
	p.idempotencyCfg = cfg
}

// SetEventPublisher sets the event publisher for publishing domain events
func (p *ReceivingProcessor) SetEventPublisher(publisher shared.EventPublisher) {
	p.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (p *ReceivingProcessor) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	p.businessMetrics = bm
}

// SetClock replaces the clock "today" is taken from
func (p *ReceivingProcessor) SetClock(clock shared.Clock) {
	p.clock = clock
}

// credit is one storage item credit made by a receipt
type credit struct {
	receipt   trade.Receipt
	condition inventory.Condition
}

// ReceiveAll receives everything still outstanding on the order. Stock
// goes to the request's condition bucket (default new) unless a line
// names its own. A line given in the request may leave its quantity at
// zero or state the ordered or outstanding quantity; on a partially
// received order both mean the rest of the line.
func (p *ReceivingProcessor) ReceiveAll(ctx context.Context, orderID uuid.UUID, req ReceivePurchaseOrderRequest, idempotencyKey string) (*ReceiveResultResponse, error) {
	receivedOn, err := p.receiptDate(req.ActualDeliveryDate)
	if err != nil {
		return nil, err
	}
	defaultCondition, err := inventory.ParseCondition(req.Condition)
	if err != nil {
		return nil, err
	}
	overrides := make(map[uuid.UUID]inventory.Condition, len(req.Items))
	for _, in := range req.Items {
		if in.Condition == "" {
			continue
		}
		if overrides[in.ItemID], err = inventory.ParseCondition(in.Condition); err != nil {
			return nil, err
		}
	}

	return p.receive(ctx, orderID, "receive_all", idempotencyKey, func(order *trade.PurchaseOrder) ([]credit, error) {
		for _, in := range req.Items {
			item := order.GetItem(in.ItemID)
			if item == nil {
				return nil, shared.NewDomainError(shared.CodeItemNotFound, fmt.Sprintf("Order item %s not found", in.ItemID))
			}
			// a full receipt line may state the ordered or the outstanding quantity
			stated := in.QuantityReceived
			if stated != 0 && stated != item.QuantityOrdered && stated != item.RemainingQuantity() {
				return nil, shared.NewValidationError(shared.CodeInvalidQuantity, fmt.Sprintf(
					"A full receipt must state the ordered quantity %d or the outstanding quantity %d of item %s, got %d",
					item.QuantityOrdered, item.RemainingQuantity(), in.ItemID, stated))
			}
		}

		receipts, err := order.ReceiveAll(receivedOn)
		if err != nil {
			return nil, err
		}

		credits := make([]credit, len(receipts))
		for i, r := range receipts {
			condition, ok := overrides[r.ItemID]
			if !ok {
				condition = defaultCondition
			}
			credits[i] = credit{receipt: r, condition: condition}
		}
		return credits, nil
	})
}

// ReceiveItem receives part or all of the outstanding quantity of one item
func (p *ReceivingProcessor) ReceiveItem(ctx context.Context, orderID, itemID uuid.UUID, req ReceiveItemRequest, idempotencyKey string) (*ReceiveResultResponse, error) {
	receivedOn, err := p.receiptDate(req.ActualDeliveryDate)
	if err != nil {
		return nil, err
	}
	condition, err := inventory.ParseCondition(req.Condition)
	if err != nil {
		return nil, err
	}

	return p.receive(ctx, orderID, "receive_item", idempotencyKey, func(order *trade.PurchaseOrder) ([]credit, error) {
		receipt, err := order.ReceiveItem(itemID, req.QuantityReceived, receivedOn)
		if err != nil {
			return nil, err
		}
		if err := order.AddItemNote(itemID, req.Notes); err != nil {
			return nil, err
		}
		return []credit{{receipt: receipt, condition: condition}}, nil
	})
}

// receive runs one goods receipt: claim the idempotency key, then in one
// transaction lock the order, apply the receipt, lock and credit every
// touched storage item and save everything with the version check.
func (p *ReceivingProcessor) receive(
	ctx context.Context,
	orderID uuid.UUID,
	operation string,
	idempotencyKey string,
	apply func(order *trade.PurchaseOrder) ([]credit, error),
) (*ReceiveResultResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", operation)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	key, err := p.claim(ctx, orderID, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		order   *trade.PurchaseOrder
		credits []credit
		events  []shared.DomainEvent
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(operation, nil), func(c context.Context) {
		err = p.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var err error
			order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(c, orderID)
			if err != nil {
				return orderLookupError(err)
			}

			credits, err = apply(order)
			if err != nil {
				return err
			}

			stockEvents, err := creditStock(c, repos.StorageItemRepo(), order.ID, credits)
			if err != nil {
				return err
			}

			if err := repos.PurchaseOrderRepo().SaveWithLock(c, order); err != nil {
				return err
			}

			events = append(order.GetDomainEvents(), stockEvents...)
			order.ClearDomainEvents()
			return nil
		})
	})
	if err != nil {
		p.release(ctx, key)
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishAfterCommit(ctx, p.eventPublisher, p.logger, events)
	p.record(ctx, order, credits)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderStatus, order.Status.String(),
		telemetry.SpanAttrQuantity, totalQuantity(credits),
	)
	telemetry.SetOK(span)

	receipts := make([]trade.Receipt, len(credits))
	for i, c := range credits {
		receipts[i] = c.receipt
	}
	return &ReceiveResultResponse{
		Order:           ToPurchaseOrderResponse(order),
		Receipts:        receipts,
		IsFullyReceived: order.Status == trade.PurchaseOrderStatusReceived,
	}, nil
}

// creditStock locks each touched storage item and credits its receipt.
// Items are locked in ID order so concurrent receipts of different orders
// sharing storage items cannot deadlock.
func creditStock(ctx context.Context, repo inventory.StorageItemRepository, orderID uuid.UUID, credits []credit) ([]shared.DomainEvent, error) {
	ordered := make([]credit, len(credits))
	copy(ordered, credits)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].receipt.StorageItemID.String() < ordered[j].receipt.StorageItemID.String()
	})

	var events []shared.DomainEvent
	for _, c := range ordered {
		item, err := repo.FindByIDForUpdate(ctx, c.receipt.StorageItemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewConsistencyError(fmt.Sprintf(
					"Storage item %s of order item %s does not exist", c.receipt.StorageItemID, c.receipt.ItemID))
			}
			return nil, err
		}
		if err := item.ReceiveStock(c.condition, c.receipt.Quantity, orderID); err != nil {
			return nil, err
		}
		if err := repo.SaveWithLock(ctx, item); err != nil {
			return nil, err
		}
		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
	}
	return events, nil
}

// claim reserves the request's idempotency key. A store failure is logged
// and the receipt proceeds; the order lock still prevents over-receipt.
func (p *ReceivingProcessor) claim(ctx context.Context, orderID uuid.UUID, idempotencyKey string) (string, error) {
	if idempotencyKey == "" || p.idempotency == nil || !p.idempotencyCfg.Enabled {
		return "", nil
	}

	key := receiptKeyPrefix + orderID.String() + ":" + idempotencyKey
	isNew, err := p.idempotency.MarkProcessed(ctx, key, p.idempotencyCfg.TTL)
	if err != nil {
		logger.WithLogger(ctx, p.logger).Warn("Idempotency check failed, processing receipt anyway",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return "", nil
	}
	if !isNew {
		return "", shared.ErrDuplicateRequest
	}
	return key, nil
}

// release frees a claimed key after a failed receipt so the client may retry
func (p *ReceivingProcessor) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := p.idempotency.Release(ctx, key); err != nil {
		logger.WithLogger(ctx, p.logger).Warn("Failed to release idempotency key", zap.Error(err))
	}
}

func (p *ReceivingProcessor) record(ctx context.Context, order *trade.PurchaseOrder, credits []credit) {
	if p.businessMetrics != nil {
		p.businessMetrics.RecordOrderTransition(ctx, order.Status.String())
		for _, c := range credits {
			p.businessMetrics.RecordUnitsReceived(ctx, string(c.condition), c.receipt.Quantity)
		}
	}

	logger.WithLogger(ctx, p.logger).Info("Goods received",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status.String()),
		zap.Int("lines", len(credits)),
		zap.Int("quantity", totalQuantity(credits)),
	)
}

// receiptDate is the requested delivery date or today
func (p *ReceivingProcessor) receiptDate(requested *string) (time.Time, error) {
	date, err := parseDate("actual_delivery_date", requested)
	if err != nil {
		return time.Time{}, err
	}
	if date == nil {
		return shared.DateOf(p.clock.Now()), nil
	}
	return *date, nil
}

func totalQuantity(credits []credit) int {
	total := 0
	for _, c := range credits {
		total += c.receipt.Quantity
	}
	return total
}
