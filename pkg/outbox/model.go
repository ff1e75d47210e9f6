package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event types written by the fulfillment repositories.
const (
	TypeSaleCommitted       = "SaleCommitted"
	TypeStockRestocked      = "StockRestocked"
	TypeStockBelowThreshold = "StockBelowThreshold"
)

// Event is one row of the transactional outbox, written in the same
// database transaction as the state change it announces.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}
