package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/inventory/domain"
)

type Service struct {
	log            *slog.Logger
	repo           StockRepository
	maxRestockLots int
}

// NewService wires the inventory ledger. maxRestockLots caps how many lots a
// single ensure-available attempt may purchase; <= 0 means uncapped.
func NewService(log *slog.Logger, repo StockRepository, maxRestockLots int) *Service {
	return &Service{log: log, repo: repo, maxRestockLots: maxRestockLots}
}

func (s *Service) CheckStock(ctx context.Context, itemID string) (int, error) {
	return s.repo.GetStock(ctx, itemID)
}

func (s *Service) Snapshot(ctx context.Context) ([]domain.StockLevel, error) {
	return s.repo.Snapshot(ctx)
}

// EnsureAvailable checks stock for one line and makes at most one restock
// attempt when it falls short. A restock that cash cannot cover is refused
// and the line proceeds with whatever is on hand. The caller must hold the
// item's lock across this call and the eventual commit.
func (s *Service) EnsureAvailable(ctx context.Context, item catalogdomain.Item, requested int, asOf time.Time) (domain.Availability, error) {
	onHand, err := s.repo.GetStock(ctx, item.ID)
	if err != nil {
		return domain.Availability{}, err
	}
	if onHand >= requested {
		return domain.Availability{Status: domain.Sufficient, OnHand: onHand}, nil
	}

	units := domain.RestockUnits(requested-onHand, item.RestockLotSize, s.maxRestockLots)
	if units == 0 {
		return domain.Availability{
			Status: domain.RestockFailed,
			OnHand: onHand,
			Reason: "no restock configured",
		}, nil
	}

	cost := item.UnitCost.Mul(decimal.NewFromInt(int64(units)))
	delivery := domain.EstimateDelivery(asOf, units)

	newOnHand, err := s.repo.Restock(ctx, item, units, cost, asOf, delivery)
	if errors.Is(err, ErrInsufficientCash) {
		s.log.Warn("restock refused", "item_id", item.ID, "units", units, "cost", cost.String())
		return domain.Availability{
			Status: domain.RestockFailed,
			OnHand: onHand,
			Reason: "insufficient cash",
		}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}

	s.log.Info("restocked", "item_id", item.ID, "units", units, "on_hand", newOnHand, "delivery", delivery.Format("2006-01-02"))
	return domain.Availability{
		Status:       domain.Restocked,
		OnHand:       newOnHand,
		DeliveryDate: delivery,
	}, nil
}
