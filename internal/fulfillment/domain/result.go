package domain

import (
	ledgerdomain "github.com/skotsonis/paperflow/internal/ledger/domain"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
)

// OutOfStockLine reports a resolved line dropped because stock stayed short
// after the restock attempt.
type OutOfStockLine struct {
	Description string `json:"description"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// FulfillmentResult is the single outcome returned per order. Business
// failures live here; a Go error alongside it means infrastructure failed.
type FulfillmentResult struct {
	OrderID         string                         `json:"order_id"`
	Status          Status                         `json:"status"`
	CommittedLines  []LineItem                     `json:"committed_lines,omitempty"`
	Unresolved      []string                       `json:"unresolved_descriptions,omitempty"`
	OutOfStock      []OutOfStockLine               `json:"out_of_stock,omitempty"`
	Quote           *quotedomain.Quote             `json:"quote,omitempty"`
	Transaction     *ledgerdomain.TransactionRecord `json:"transaction,omitempty"`
	RejectionReason string                         `json:"rejection_reason,omitempty"`
}
