package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/inventory/domain"
)

// Mock StockRepository
type mockStockRepo struct {
	stock        map[string]int
	cash         decimal.Decimal
	restockCalls int
	lastCost     decimal.Decimal
}

func newMockStockRepo(cash string) *mockStockRepo {
	return &mockStockRepo{
		stock: make(map[string]int),
		cash:  decimal.RequireFromString(cash),
	}
}

func (m *mockStockRepo) GetStock(ctx context.Context, itemID string) (int, error) {
	return m.stock[itemID], nil
}

func (m *mockStockRepo) Snapshot(ctx context.Context) ([]domain.StockLevel, error) {
	var out []domain.StockLevel
	for id, q := range m.stock {
		out = append(out, domain.StockLevel{ItemID: id, OnHand: q})
	}
	return out, nil
}

func (m *mockStockRepo) Restock(ctx context.Context, item catalogdomain.Item, units int, cost decimal.Decimal, occurredAt, deliveryDate time.Time) (int, error) {
	m.restockCalls++
	m.lastCost = cost
	if m.cash.LessThan(cost) {
		return 0, ErrInsufficientCash
	}
	m.cash = m.cash.Sub(cost)
	m.stock[item.ID] += units
	return m.stock[item.ID], nil
}

func (m *mockStockRepo) Decrement(ctx context.Context, itemID string, quantity int) error {
	if m.stock[itemID] < quantity {
		return ErrInsufficientStock
	}
	m.stock[itemID] -= quantity
	return nil
}

func testItem() catalogdomain.Item {
	return catalogdomain.Item{
		ID:               "std-copy-paper",
		Name:             "Standard copy paper",
		UnitPrice:        decimal.RequireFromString("0.05"),
		UnitCost:         decimal.RequireFromString("0.02"),
		RestockThreshold: 50,
		RestockLotSize:   200,
	}
}

var asOf = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func TestEnsureAvailable_Sufficient(t *testing.T) {
	repo := newMockStockRepo("100.00")
	repo.stock["std-copy-paper"] = 300
	svc := NewService(slog.Default(), repo, 1)

	avail, err := svc.EnsureAvailable(context.Background(), testItem(), 250, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Status != domain.Sufficient {
		t.Errorf("expected sufficient, got %s", avail.Status)
	}
	if avail.OnHand != 300 {
		t.Errorf("expected on-hand 300, got %d", avail.OnHand)
	}
	if repo.restockCalls != 0 {
		t.Errorf("expected no restock, got %d calls", repo.restockCalls)
	}
}

func TestEnsureAvailable_RestocksOneLot(t *testing.T) {
	repo := newMockStockRepo("100.00")
	repo.stock["std-copy-paper"] = 0
	svc := NewService(slog.Default(), repo, 1)

	avail, err := svc.EnsureAvailable(context.Background(), testItem(), 250, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Status != domain.Restocked {
		t.Fatalf("expected restocked, got %s", avail.Status)
	}
	// One lot of 200, still short of 250: the caller drops the line.
	if avail.OnHand != 200 {
		t.Errorf("expected on-hand 200 after one-lot restock, got %d", avail.OnHand)
	}
	wantCost := decimal.RequireFromString("4.00") // 200 * 0.02
	if !repo.lastCost.Equal(wantCost) {
		t.Errorf("expected restock cost %s, got %s", wantCost, repo.lastCost)
	}
	wantDelivery := domain.EstimateDelivery(asOf, 200)
	if !avail.DeliveryDate.Equal(wantDelivery) {
		t.Errorf("expected delivery %s, got %s", wantDelivery, avail.DeliveryDate)
	}
}

func TestEnsureAvailable_UncappedCoversShortfall(t *testing.T) {
	repo := newMockStockRepo("100.00")
	repo.stock["std-copy-paper"] = 0
	svc := NewService(slog.Default(), repo, 0)

	avail, err := svc.EnsureAvailable(context.Background(), testItem(), 250, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.OnHand != 400 {
		t.Errorf("expected on-hand 400 (two lots), got %d", avail.OnHand)
	}
}

func TestEnsureAvailable_CashRefusal(t *testing.T) {
	repo := newMockStockRepo("1.00") // one lot costs 4.00
	repo.stock["std-copy-paper"] = 30
	svc := NewService(slog.Default(), repo, 1)

	avail, err := svc.EnsureAvailable(context.Background(), testItem(), 100, asOf)
	if err != nil {
		t.Fatalf("refusal must not be an error: %v", err)
	}
	if avail.Status != domain.RestockFailed {
		t.Fatalf("expected restock_failed, got %s", avail.Status)
	}
	if avail.OnHand != 30 {
		t.Errorf("expected on-hand unchanged at 30, got %d", avail.OnHand)
	}
	if !repo.cash.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("cash must be untouched on refusal, got %s", repo.cash)
	}
}

func TestEnsureAvailable_NoLotConfigured(t *testing.T) {
	repo := newMockStockRepo("100.00")
	repo.stock["widget"] = 5
	item := catalogdomain.Item{ID: "widget", Name: "Widget", UnitCost: decimal.RequireFromString("0.10")}
	svc := NewService(slog.Default(), repo, 1)

	avail, err := svc.EnsureAvailable(context.Background(), item, 10, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Status != domain.RestockFailed {
		t.Errorf("expected restock_failed without lot size, got %s", avail.Status)
	}
	if repo.restockCalls != 0 {
		t.Errorf("expected no restock attempt, got %d", repo.restockCalls)
	}
}

