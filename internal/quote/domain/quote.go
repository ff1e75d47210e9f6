package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountUnitThreshold is the whole-order unit count above which the bulk
// discount applies. 500 units exactly does not qualify.
const DiscountUnitThreshold = 500

// DefaultDiscountRate is the flat bulk discount applied to the order
// subtotal.
var DefaultDiscountRate = decimal.RequireFromString("0.10")

// LineInput is one resolved, in-stock line to be priced.
type LineInput struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// PriceLine is one priced line of a quote.
type PriceLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Consistency is the advisory historical-price signal for one line. It never
// blocks a commit.
type Consistency struct {
	ItemID       string          `json:"item_id"`
	Deviates     bool            `json:"deviates"`
	ExpectedLow  decimal.Decimal `json:"expected_low"`
	ExpectedHigh decimal.Decimal `json:"expected_high"`
}

// Quote is a freshly computed price for one order. It is never mutated;
// pricing again produces a new Quote.
type Quote struct {
	Lines        []PriceLine     `json:"lines"`
	TotalUnits   int             `json:"total_units"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	Total        decimal.Decimal `json:"total"`
	Consistency  []Consistency   `json:"consistency,omitempty"`
	QuotedAt     time.Time       `json:"quoted_at"`
}

// Compute prices the given lines, applying the bulk discount to the whole
// order when total units exceed threshold. The discount is taken off the
// order subtotal, never per line, so splitting lines cannot earn it twice.
// The final total is rounded to cents, half-up.
func Compute(lines []LineInput, rate decimal.Decimal, threshold int, quotedAt time.Time) Quote {
	q := Quote{
		Lines:        make([]PriceLine, 0, len(lines)),
		DiscountRate: decimal.Zero,
		QuotedAt:     quotedAt,
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		q.Lines = append(q.Lines, PriceLine{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: lineTotal,
		})
		q.TotalUnits += l.Quantity
		subtotal = subtotal.Add(lineTotal)
	}
	q.Subtotal = subtotal

	total := subtotal
	if q.TotalUnits > threshold {
		q.DiscountRate = rate
		total = subtotal.Mul(decimal.NewFromInt(1).Sub(rate))
	}
	// Round half-up to the smallest currency unit.
	q.Total = total.Round(2)
	return q
}
