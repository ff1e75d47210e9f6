package application

import (
	"context"
	"time"

	fulfillmentdomain "github.com/skotsonis/paperflow/internal/fulfillment/domain"
	"github.com/skotsonis/paperflow/internal/ledger/domain"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
)

type TransactionRepository interface {
	// CommitSale applies a sale as one atomic unit: decrement stock for
	// every line, append a SALE ledger entry for +quote.Total, update cash,
	// and record the quoted unit prices for the consistency history. If any
	// decrement would violate the non-negative stock invariant the whole
	// write is rolled back and inventory's ErrInsufficientStock returned.
	CommitSale(ctx context.Context, q quotedomain.Quote, lines []fulfillmentdomain.LineItem, occurredAt time.Time) (domain.TransactionRecord, error)

	// Report reads cash balance, inventory snapshot, and the most recent
	// ledger entries as of a date. Never mutates.
	Report(ctx context.Context, asOf time.Time, recentLimit int) (domain.Report, error)
}
