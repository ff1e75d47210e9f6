package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteHistory reads unit prices from previously committed sales, for the
// historical-consistency check.
type QuoteHistory interface {
	// RecentUnitPrices returns committed unit prices for the item quoted
	// within [since, until], newest first. The upper bound matters under
	// simulated dates: replaying an old order must not see quotes committed
	// at later simulation dates.
	RecentUnitPrices(ctx context.Context, itemID string, since, until time.Time) ([]decimal.Decimal, error)
}
