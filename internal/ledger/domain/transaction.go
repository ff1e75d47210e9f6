package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindSale    Kind = "sale"
	KindRestock Kind = "restock"
)

// TransactionRecord is one append-only entry in the cash ledger. Amount is
// positive for sales and negative for restocks; ResultingCash is the cash
// balance immediately after this entry, kept consistent with the entry in
// the same transaction that appends it.
type TransactionRecord struct {
	ID            int64           `json:"id"`
	Kind          Kind            `json:"kind"`
	ItemID        string          `json:"item_id,omitempty"`
	Units         int             `json:"units"`
	Amount        decimal.Decimal `json:"amount"`
	ResultingCash decimal.Decimal `json:"resulting_cash"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type CommitStatus string

const (
	CommitCommitted CommitStatus = "committed"
	CommitRejected  CommitStatus = "rejected"
)

// CommitResult reports whether a sale was applied. A rejection is a business
// outcome: nothing was written and the reason says why.
type CommitResult struct {
	Status CommitStatus      `json:"status"`
	Record TransactionRecord `json:"record,omitempty"`
	Reason string            `json:"reason,omitempty"`
}
