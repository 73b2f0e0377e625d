package trade

import (
	"time"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// Delivery estimate sources
const (
	DeliverySourceSupplier     = "supplier"
	DeliverySourceLongestItem  = "longest item lead time"
	DeliverySourceItemSupplier = "item/supplier"
)

// DeliveryEstimate is the lead time an order is expected to take and the
// date it results in
type DeliveryEstimate struct {
	LeadTimeDays int        `json:"lead_time_days"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Source       string     `json:"source"`
}

// EstimateDelivery derives the lead time of an order from the supplier's
// default delivery time and the lead times of the supplier's links to the
// ordered items. The longest item lead time wins when it exceeds the
// supplier default. ExpectedDate is nil when no positive lead time is known.
func EstimateDelivery(supplierDeliveryDays *int, itemLeadTimes []*int, today time.Time) DeliveryEstimate {
	est := DeliveryEstimate{Source: DeliverySourceSupplier}
	if supplierDeliveryDays != nil && *supplierDeliveryDays > 0 {
		est.LeadTimeDays = *supplierDeliveryDays
	}

	maxItemLead := 0
	for _, lead := range itemLeadTimes {
		if lead != nil && *lead > maxItemLead {
			maxItemLead = *lead
		}
	}

	if maxItemLead > est.LeadTimeDays {
		est.LeadTimeDays = maxItemLead
		est.Source = DeliverySourceLongestItem
	} else if maxItemLead > 0 && maxItemLead == est.LeadTimeDays {
		est.Source = DeliverySourceItemSupplier
	}

	if est.LeadTimeDays > 0 {
		expected := shared.DateOf(today).AddDate(0, 0, est.LeadTimeDays)
		est.ExpectedDate = &expected
	}
	return est
}
