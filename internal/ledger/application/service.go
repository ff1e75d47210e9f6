package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	fulfillmentdomain "github.com/skotsonis/paperflow/internal/fulfillment/domain"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	"github.com/skotsonis/paperflow/internal/ledger/domain"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
)

const defaultRecentLimit = 20

type Service struct {
	log  *slog.Logger
	repo TransactionRepository
}

func NewService(log *slog.Logger, repo TransactionRepository) *Service {
	return &Service{log: log, repo: repo}
}

// CommitSale attempts the atomic sale commit. A stock-invariant violation is
// returned as a rejected result, not an error; only infrastructure faults
// surface as errors.
func (s *Service) CommitSale(ctx context.Context, q quotedomain.Quote, lines []fulfillmentdomain.LineItem, occurredAt time.Time) (domain.CommitResult, error) {
	record, err := s.repo.CommitSale(ctx, q, lines, occurredAt)
	if errors.Is(err, inventoryapp.ErrInsufficientStock) {
		s.log.Warn("sale rejected", "reason", err.Error(), "total", q.Total.String())
		return domain.CommitResult{Status: domain.CommitRejected, Reason: err.Error()}, nil
	}
	if err != nil {
		return domain.CommitResult{}, err
	}

	s.log.Info("sale committed",
		"transaction_id", record.ID,
		"amount", record.Amount.String(),
		"cash", record.ResultingCash.String())
	return domain.CommitResult{Status: domain.CommitCommitted, Record: record}, nil
}

func (s *Service) GenerateReport(ctx context.Context, asOf time.Time) (domain.Report, error) {
	return s.repo.Report(ctx, asOf, defaultRecentLimit)
}
