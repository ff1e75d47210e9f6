package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/inventory/application"
	"github.com/skotsonis/paperflow/internal/inventory/domain"
	"github.com/skotsonis/paperflow/pkg/outbox"
	"github.com/skotsonis/paperflow/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetStock(ctx context.Context, itemID string) (int, error) {
	var onHand int
	err := r.pool.QueryRow(ctx, `SELECT on_hand FROM stock_levels WHERE item_id=$1`, itemID).Scan(&onHand)
	if err != nil {
		return 0, fmt.Errorf("get stock %s: %w", itemID, err)
	}
	return onHand, nil
}

func (r *Repository) Snapshot(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_id, on_hand FROM stock_levels ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var s domain.StockLevel
		if err := rows.Scan(&s.ItemID, &s.OnHand); err != nil {
			return nil, err
		}
		levels = append(levels, s)
	}
	return levels, rows.Err()
}

type restockedEvent struct {
	ItemID       string          `json:"item_id"`
	Units        int             `json:"units"`
	Cost         decimal.Decimal `json:"cost"`
	OnHand       int             `json:"on_hand"`
	DeliveryDate time.Time       `json:"delivery_date"`
}

// Restock purchases units from the supplier in one transaction: cash is
// locked first and the purchase refused outright if the balance cannot cover
// it, so the ledger can never go negative on a restock.
func (r *Repository) Restock(ctx context.Context, item catalogdomain.Item, units int, cost decimal.Decimal, occurredAt, deliveryDate time.Time) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var balance decimal.Decimal
	if err = tx.QueryRow(ctx, `SELECT balance FROM cash_balance WHERE id FOR UPDATE`).Scan(&balance); err != nil {
		return 0, err
	}
	if balance.LessThan(cost) {
		return 0, fmt.Errorf("%w: balance %s, restock cost %s", application.ErrInsufficientCash, balance, cost)
	}
	newBalance := balance.Sub(cost)
	if _, err = tx.Exec(ctx, `UPDATE cash_balance SET balance=$1 WHERE id`, newBalance); err != nil {
		return 0, err
	}

	var onHand int
	err = tx.QueryRow(ctx, `UPDATE stock_levels SET on_hand = on_hand + $1 WHERE item_id=$2 RETURNING on_hand`,
		units, item.ID).Scan(&onHand)
	if err != nil {
		return 0, fmt.Errorf("restock %s: %w", item.ID, err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO transactions (kind, item_id, units, amount, resulting_cash, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		"restock", item.ID, units, cost.Neg(), newBalance, occurredAt)
	if err != nil {
		return 0, err
	}

	payload, _ := json.Marshal(restockedEvent{
		ItemID:       item.ID,
		Units:        units,
		Cost:         cost,
		OnHand:       onHand,
		DeliveryDate: deliveryDate,
	})
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('stock',$1,$2,$3,$4,'pending')`,
		item.ID, outbox.TypeStockRestocked, payload, tracing.Traceparent(ctx))
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return onHand, nil
}

// Decrement guards the non-negative invariant in the UPDATE itself: zero
// rows affected means stock was short and nothing changed.
func (r *Repository) Decrement(ctx context.Context, itemID string, quantity int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE stock_levels SET on_hand = on_hand - $1 WHERE item_id=$2 AND on_hand >= $1`,
		quantity, itemID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", application.ErrInsufficientStock, itemID)
	}
	return nil
}
