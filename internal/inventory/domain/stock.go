package domain

import "time"

// StockLevel is the on-hand quantity for one catalog item. Mutated only by
// the inventory ledger; OnHand never goes below zero.
type StockLevel struct {
	ItemID string `json:"item_id"`
	OnHand int    `json:"on_hand"`
}

type AvailabilityStatus string

const (
	Sufficient    AvailabilityStatus = "sufficient"
	Restocked     AvailabilityStatus = "restocked"
	RestockFailed AvailabilityStatus = "restock_failed"
)

// Availability is the outcome of one ensure-available call. OnHand is the
// quantity after any restock; with RestockFailed it is whatever was already
// on hand, and the order proceeds with that.
type Availability struct {
	Status       AvailabilityStatus `json:"status"`
	OnHand       int                `json:"on_hand"`
	DeliveryDate time.Time          `json:"delivery_date,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

// RestockUnits sizes a restock order: enough whole lots to cover the
// shortfall (ceiling division), capped at maxLots per attempt. maxLots <= 0
// means uncapped. Needing 37 more units with lot size 25 orders 50, not 25.
func RestockUnits(shortfall, lotSize, maxLots int) int {
	if shortfall <= 0 || lotSize <= 0 {
		return 0
	}
	lots := (shortfall + lotSize - 1) / lotSize
	if maxLots > 0 && lots > maxLots {
		lots = maxLots
	}
	return lots * lotSize
}

// EstimateDelivery returns the supplier's expected delivery date for an
// order of the given size placed on orderDate. Larger orders take longer.
func EstimateDelivery(orderDate time.Time, units int) time.Time {
	var days int
	switch {
	case units <= 10:
		days = 0
	case units <= 100:
		days = 1
	case units <= 1000:
		days = 4
	default:
		days = 7
	}
	return orderDate.AddDate(0, 0, days)
}
