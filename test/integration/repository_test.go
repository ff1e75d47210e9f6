package integration

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	fulfillmentdomain "github.com/skotsonis/paperflow/internal/fulfillment/domain"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	inventorypg "github.com/skotsonis/paperflow/internal/inventory/infrastructure/postgres"
	ledgerdomain "github.com/skotsonis/paperflow/internal/ledger/domain"
	ledgerpg "github.com/skotsonis/paperflow/internal/ledger/infrastructure/postgres"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
)

var occurredAt = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func setupPG(t *testing.T) (*pgxpool.Pool, catalogdomain.Catalog) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	if err != nil {
		t.Fatalf("container setup: %v", err)
	}
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	if err != nil {
		t.Fatalf("pg connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := ledgerpg.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	catalog := catalogdomain.Seed()
	if err := ledgerpg.Seed(ctx, pool, catalog, decimal.RequireFromString("1000.00"), 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return pool, catalog
}

func TestCommitSale_RoundTrip(t *testing.T) {
	pool, catalog := setupPG(t)
	ctx := context.Background()
	log := slog.Default()

	repo := ledgerpg.NewRepository(log, pool)
	item, _ := catalog.ByID("std-copy-paper")

	lines := []fulfillmentdomain.LineItem{{Item: item, Quantity: 100, RawDescription: "copy paper"}}
	q := quotedomain.Compute([]quotedomain.LineInput{
		{ItemID: item.ID, Name: item.Name, UnitPrice: item.UnitPrice, Quantity: 100},
	}, quotedomain.DefaultDiscountRate, quotedomain.DiscountUnitThreshold, occurredAt)

	record, err := repo.CommitSale(ctx, q, lines, occurredAt)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if record.Kind != ledgerdomain.KindSale {
		t.Errorf("kind = %s", record.Kind)
	}
	if !record.Amount.Equal(q.Total) {
		t.Errorf("amount %s, quote total %s", record.Amount, q.Total)
	}
	// 1000.00 + 100*0.05
	if want := decimal.RequireFromString("1005.00"); !record.ResultingCash.Equal(want) {
		t.Errorf("cash = %s, want %s", record.ResultingCash, want)
	}

	stockRepo := inventorypg.NewRepository(log, pool)
	onHand, err := stockRepo.GetStock(ctx, item.ID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	// Seeded with one lot (200), sold 100.
	if onHand != 100 {
		t.Errorf("on hand = %d, want 100", onHand)
	}

	// Outbox carries the sale event in the same transaction.
	var outboxCount int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM outbox WHERE type='SaleCommitted' AND status='pending'`).Scan(&outboxCount)
	if err != nil {
		t.Fatalf("outbox count: %v", err)
	}
	if outboxCount != 1 {
		t.Errorf("outbox sale events = %d, want 1", outboxCount)
	}
}

func TestCommitSale_OversoldRollsBackEverything(t *testing.T) {
	pool, catalog := setupPG(t)
	ctx := context.Background()

	repo := ledgerpg.NewRepository(slog.Default(), pool)
	item, _ := catalog.ByID("poster-paper") // seeded with one lot of 25

	lines := []fulfillmentdomain.LineItem{{Item: item, Quantity: 26, RawDescription: "poster paper"}}
	q := quotedomain.Compute([]quotedomain.LineInput{
		{ItemID: item.ID, Name: item.Name, UnitPrice: item.UnitPrice, Quantity: 26},
	}, quotedomain.DefaultDiscountRate, quotedomain.DiscountUnitThreshold, occurredAt)

	if _, err := repo.CommitSale(ctx, q, lines, occurredAt); err == nil {
		t.Fatal("oversold commit must fail")
	}

	var onHand int
	if err := pool.QueryRow(ctx, `SELECT on_hand FROM stock_levels WHERE item_id=$1`, item.ID).Scan(&onHand); err != nil {
		t.Fatalf("stock query: %v", err)
	}
	if onHand != 25 {
		t.Errorf("stock = %d after rollback, want 25", onHand)
	}
	var balance decimal.Decimal
	if err := pool.QueryRow(ctx, `SELECT balance FROM cash_balance WHERE id`).Scan(&balance); err != nil {
		t.Fatalf("cash query: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("cash = %s after rollback, want 1000.00", balance)
	}
	var txCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM transactions`).Scan(&txCount); err != nil {
		t.Fatalf("tx count: %v", err)
	}
	if txCount != 0 {
		t.Errorf("transactions = %d after rollback, want 0", txCount)
	}
}

func TestDecrement_NeverGoesNegative(t *testing.T) {
	pool, catalog := setupPG(t)
	ctx := context.Background()

	repo := inventorypg.NewRepository(slog.Default(), pool)
	item, _ := catalog.ByID("poster-paper") // seeded with one lot of 25

	if err := repo.Decrement(ctx, item.ID, 25); err != nil {
		t.Fatalf("decrement to zero: %v", err)
	}
	err := repo.Decrement(ctx, item.ID, 1)
	if !errors.Is(err, inventoryapp.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	onHand, err := repo.GetStock(ctx, item.ID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if onHand != 0 {
		t.Errorf("stock = %d, want 0", onHand)
	}
}

func TestRestock_ChargesCashAndRecordsTransaction(t *testing.T) {
	pool, catalog := setupPG(t)
	ctx := context.Background()

	repo := inventorypg.NewRepository(slog.Default(), pool)
	item, _ := catalog.ByID("cardstock")

	cost := item.UnitCost.Mul(decimal.NewFromInt(100))
	onHand, err := repo.Restock(ctx, item, 100, cost, occurredAt, occurredAt.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	// Seeded with one lot of 100, plus 100.
	if onHand != 200 {
		t.Errorf("on hand = %d, want 200", onHand)
	}

	var kind string
	var amount decimal.Decimal
	err = pool.QueryRow(ctx, `SELECT kind, amount FROM transactions WHERE item_id=$1`, item.ID).Scan(&kind, &amount)
	if err != nil {
		t.Fatalf("tx query: %v", err)
	}
	if kind != "restock" {
		t.Errorf("kind = %s", kind)
	}
	if !amount.Equal(cost.Neg()) {
		t.Errorf("amount = %s, want %s", amount, cost.Neg())
	}
}

func TestReport_AsOfExcludesLaterTransactions(t *testing.T) {
	pool, catalog := setupPG(t)
	ctx := context.Background()

	repo := ledgerpg.NewRepository(slog.Default(), pool)
	item, _ := catalog.ByID("std-copy-paper")

	lines := []fulfillmentdomain.LineItem{{Item: item, Quantity: 100, RawDescription: "copy paper"}}
	q := quotedomain.Compute([]quotedomain.LineInput{
		{ItemID: item.ID, Name: item.Name, UnitPrice: item.UnitPrice, Quantity: 100},
	}, quotedomain.DefaultDiscountRate, quotedomain.DiscountUnitThreshold, occurredAt)
	if _, err := repo.CommitSale(ctx, q, lines, occurredAt); err != nil {
		t.Fatalf("commit: %v", err)
	}

	before, err := repo.Report(ctx, occurredAt.Add(-time.Hour), 20)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !before.CashBalance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("as-of cash before sale = %s, want 1000.00", before.CashBalance)
	}
	if len(before.RecentTransactions) != 0 {
		t.Errorf("transactions before sale = %d, want 0", len(before.RecentTransactions))
	}

	after, err := repo.Report(ctx, occurredAt.Add(time.Hour), 20)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !after.CashBalance.Equal(decimal.RequireFromString("1005.00")) {
		t.Errorf("as-of cash after sale = %s, want 1005.00", after.CashBalance)
	}
	if len(after.RecentTransactions) != 1 {
		t.Errorf("transactions after sale = %d, want 1", len(after.RecentTransactions))
	}
}
