package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	fulfillmentdomain "github.com/skotsonis/paperflow/internal/fulfillment/domain"
	"github.com/skotsonis/paperflow/internal/quote/domain"
)

type Engine struct {
	log           *slog.Logger
	history       QuoteHistory
	discountRate  decimal.Decimal
	unitThreshold int
	tolerance     decimal.Decimal
	lookback      time.Duration
}

// NewEngine builds the quote engine. tolerance widens the expected range of
// the consistency check (0.20 flags prices more than 20% outside the
// historical min/max); lookback bounds how far back history is consulted.
func NewEngine(log *slog.Logger, history QuoteHistory, discountRate decimal.Decimal, unitThreshold int, tolerance decimal.Decimal, lookback time.Duration) *Engine {
	return &Engine{
		log:           log,
		history:       history,
		discountRate:  discountRate,
		unitThreshold: unitThreshold,
		tolerance:     tolerance,
		lookback:      lookback,
	}
}

// NewDefaultEngine uses the standard 10%-over-500-units policy with a 20%
// tolerance and 90-day lookback.
func NewDefaultEngine(log *slog.Logger, history QuoteHistory) *Engine {
	return NewEngine(log, history,
		domain.DefaultDiscountRate, domain.DiscountUnitThreshold,
		decimal.RequireFromString("0.20"), 90*24*time.Hour)
}

// Price computes a quote for the surviving line items, then annotates it
// with the advisory consistency signal per line. History failures are
// logged and skipped; the quote itself never depends on them.
func (e *Engine) Price(ctx context.Context, lines []fulfillmentdomain.LineItem, simulationDate time.Time) (domain.Quote, error) {
	inputs := make([]domain.LineInput, 0, len(lines))
	for _, l := range lines {
		inputs = append(inputs, domain.LineInput{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			UnitPrice: l.Item.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	q := domain.Compute(inputs, e.discountRate, e.unitThreshold, simulationDate)

	for _, l := range lines {
		c, err := e.CheckConsistency(ctx, l.Item.ID, l.Item.UnitPrice, simulationDate)
		if err != nil {
			e.log.Warn("consistency check skipped", "item_id", l.Item.ID, "err", err)
			continue
		}
		if c.Deviates {
			e.log.Info("price deviates from history",
				"item_id", l.Item.ID,
				"unit_price", l.Item.UnitPrice.String(),
				"expected_low", c.ExpectedLow.String(),
				"expected_high", c.ExpectedHigh.String())
			q.Consistency = append(q.Consistency, c)
		}
	}
	return q, nil
}

// CheckConsistency compares a proposed unit price against committed prices
// for the same item within the lookback window. With no history the price
// is trivially consistent.
func (e *Engine) CheckConsistency(ctx context.Context, itemID string, proposed decimal.Decimal, asOf time.Time) (domain.Consistency, error) {
	since := asOf.Add(-e.lookback)
	prices, err := e.history.RecentUnitPrices(ctx, itemID, since, asOf)
	if err != nil {
		return domain.Consistency{}, err
	}
	if len(prices) == 0 {
		return domain.Consistency{ItemID: itemID}, nil
	}

	low, high := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(low) {
			low = p
		}
		if p.GreaterThan(high) {
			high = p
		}
	}

	one := decimal.NewFromInt(1)
	expectedLow := low.Mul(one.Sub(e.tolerance))
	expectedHigh := high.Mul(one.Add(e.tolerance))

	return domain.Consistency{
		ItemID:       itemID,
		Deviates:     proposed.LessThan(expectedLow) || proposed.GreaterThan(expectedHigh),
		ExpectedLow:  expectedLow,
		ExpectedHigh: expectedHigh,
	}, nil
}
