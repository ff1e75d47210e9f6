package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var quotedAt = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func line(id, price string, qty int) LineInput {
	return LineInput{ItemID: id, Name: id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestCompute_NoDiscountAtExactly500Units(t *testing.T) {
	q := Compute([]LineInput{line("a4-paper", "0.05", 500)}, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)

	if !q.DiscountRate.IsZero() {
		t.Errorf("500 units must not discount, got rate %s", q.DiscountRate)
	}
	if want := decimal.RequireFromString("25.00"); !q.Total.Equal(want) {
		t.Errorf("total = %s, want %s", q.Total, want)
	}
}

func TestCompute_DiscountAt501Units(t *testing.T) {
	q := Compute([]LineInput{line("a4-paper", "0.05", 501)}, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)

	if !q.DiscountRate.Equal(DefaultDiscountRate) {
		t.Errorf("501 units must discount, got rate %s", q.DiscountRate)
	}
	// 501 * 0.05 = 25.05; 10% off = 22.545; rounds half-up to 22.55
	if want := decimal.RequireFromString("22.55"); !q.Total.Equal(want) {
		t.Errorf("total = %s, want %s", q.Total, want)
	}
}

func TestCompute_DiscountAppliesToWholeOrderNotPerLine(t *testing.T) {
	// Two lines of 300 units each: neither alone crosses the threshold,
	// together they do. Splitting lines must not change the outcome.
	split := Compute([]LineInput{
		line("a4-paper", "0.05", 300),
		line("cardstock", "0.15", 300),
	}, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)

	if !split.DiscountRate.Equal(DefaultDiscountRate) {
		t.Fatalf("600 total units must discount, got rate %s", split.DiscountRate)
	}
	// subtotal = 15 + 45 = 60; 10% off = 54.00
	if want := decimal.RequireFromString("54.00"); !split.Total.Equal(want) {
		t.Errorf("total = %s, want %s", split.Total, want)
	}
}

func TestCompute_SubtotalIsExact(t *testing.T) {
	q := Compute([]LineInput{
		line("a", "0.10", 3),
		line("b", "0.07", 7),
	}, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)

	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.LineTotal)
	}
	if !sum.Equal(q.Subtotal) {
		t.Errorf("line totals sum to %s, subtotal %s", sum, q.Subtotal)
	}
	if !q.Total.Equal(q.Subtotal.Round(2)) {
		t.Errorf("undiscounted total %s must equal rounded subtotal %s", q.Total, q.Subtotal)
	}
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	// 3 * 0.035 = 0.105, which must round to 0.11, not 0.10.
	q := Compute([]LineInput{line("a", "0.035", 3)}, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)
	if want := decimal.RequireFromString("0.11"); !q.Total.Equal(want) {
		t.Errorf("total = %s, want %s", q.Total, want)
	}
}

func TestCompute_Empty(t *testing.T) {
	q := Compute(nil, DefaultDiscountRate, DiscountUnitThreshold, quotedAt)
	if q.TotalUnits != 0 || !q.Total.IsZero() {
		t.Errorf("empty order must price to zero, got %d units, total %s", q.TotalUnits, q.Total)
	}
}
