package trade

import (
	"fmt"
	"strings"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent              PurchaseOrderStatus = "sent"
	PurchaseOrderStatusConfirmed         PurchaseOrderStatus = "confirmed"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// AllPurchaseOrderStatuses lists every status in lifecycle order
var AllPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusPartiallyReceived,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusCancelled,
}

// ParsePurchaseOrderStatus parses a status string
func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	status := PurchaseOrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown purchase order status %q", s))
	}
	return status, nil
}

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	for _, known := range AllPurchaseOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no action is possible any more
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// OrderAction is something a caller may do to a purchase order
type OrderAction string

const (
	ActionUpdate  OrderAction = "update"
	ActionDelete  OrderAction = "delete"
	ActionSend    OrderAction = "send"
	ActionConfirm OrderAction = "confirm"
	ActionReceive OrderAction = "receive"
	ActionCancel  OrderAction = "cancel"
)

type transition struct {
	from []PurchaseOrderStatus
	// to is empty when the target depends on the outcome (receive) or the
	// order disappears (delete)
	to PurchaseOrderStatus
}

// lifecycle is the single definition of which action is legal in which
// status. Every predicate and guard below is derived from it.
var lifecycle = map[OrderAction]transition{
	ActionUpdate:  {from: []PurchaseOrderStatus{PurchaseOrderStatusDraft}, to: PurchaseOrderStatusDraft},
	ActionDelete:  {from: []PurchaseOrderStatus{PurchaseOrderStatusDraft}},
	ActionSend:    {from: []PurchaseOrderStatus{PurchaseOrderStatusDraft}, to: PurchaseOrderStatusSent},
	ActionConfirm: {from: []PurchaseOrderStatus{PurchaseOrderStatusSent}, to: PurchaseOrderStatusConfirmed},
	ActionReceive: {from: []PurchaseOrderStatus{
		PurchaseOrderStatusSent,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusPartiallyReceived,
	}},
	ActionCancel: {from: []PurchaseOrderStatus{
		PurchaseOrderStatusDraft,
		PurchaseOrderStatusSent,
		PurchaseOrderStatusConfirmed,
	}, to: PurchaseOrderStatusCancelled},
}

// Allows reports whether action is legal in status s
func (s PurchaseOrderStatus) Allows(action OrderAction) bool {
	t, ok := lifecycle[action]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == s {
			return true
		}
	}
	return false
}

// TargetOf returns the fixed target status of action, if it has one
func TargetOf(action OrderAction) (PurchaseOrderStatus, bool) {
	t, ok := lifecycle[action]
	if !ok || t.to == "" {
		return "", false
	}
	return t.to, true
}

// CanEdit returns true if the order content may be changed
func (s PurchaseOrderStatus) CanEdit() bool { return s.Allows(ActionUpdate) }

// CanDelete returns true if the order may be deleted
func (s PurchaseOrderStatus) CanDelete() bool { return s.Allows(ActionDelete) }

// CanSend returns true if the order may be sent to the supplier
func (s PurchaseOrderStatus) CanSend() bool { return s.Allows(ActionSend) }

// CanConfirm returns true if a supplier confirmation may be recorded
func (s PurchaseOrderStatus) CanConfirm() bool { return s.Allows(ActionConfirm) }

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool { return s.Allows(ActionReceive) }

// CanCancel returns true if the status admits cancellation. The order may
// still refuse when goods were already received.
func (s PurchaseOrderStatus) CanCancel() bool { return s.Allows(ActionCancel) }

// Guard returns a StateError when action is not legal in status s
func (s PurchaseOrderStatus) Guard(action OrderAction) error {
	if s.Allows(action) {
		return nil
	}
	return shared.NewStateError(fmt.Sprintf("Cannot %s purchase order in %s status", action, s))
}
