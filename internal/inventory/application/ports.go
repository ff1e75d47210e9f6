package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/inventory/domain"
)

var (
	// ErrInsufficientCash means a restock purchase would drive the cash
	// balance negative. The restock is refused, not retried.
	ErrInsufficientCash = errors.New("insufficient cash for restock")

	// ErrInsufficientStock means a decrement would drive on-hand quantity
	// negative. The write is refused.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type StockRepository interface {
	// GetStock returns the current on-hand quantity. Pure read.
	GetStock(ctx context.Context, itemID string) (int, error)

	// Snapshot returns every stock level. Pure read.
	Snapshot(ctx context.Context) ([]domain.StockLevel, error)

	// Restock atomically increases on-hand quantity by units, appends a
	// RESTOCK ledger entry for -cost, and updates the cash balance, all in
	// one transaction. Returns ErrInsufficientCash without writing anything
	// if cash would go negative.
	Restock(ctx context.Context, item catalogdomain.Item, units int, cost decimal.Decimal, occurredAt, deliveryDate time.Time) (newOnHand int, err error)

	// Decrement reduces on-hand quantity, guarding the non-negative
	// invariant with ErrInsufficientStock. Called only once a sale is
	// confirmed committable.
	Decrement(ctx context.Context, itemID string, quantity int) error
}
