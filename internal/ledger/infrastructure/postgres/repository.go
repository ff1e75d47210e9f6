package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	fulfillmentdomain "github.com/skotsonis/paperflow/internal/fulfillment/domain"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	"github.com/skotsonis/paperflow/internal/ledger/domain"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
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

type saleCommittedEvent struct {
	TransactionID int64           `json:"transaction_id"`
	TotalUnits    int             `json:"total_units"`
	Amount        decimal.Decimal `json:"amount"`
	ResultingCash decimal.Decimal `json:"resulting_cash"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type belowThresholdEvent struct {
	ItemID    string `json:"item_id"`
	OnHand    int    `json:"on_hand"`
	Threshold int    `json:"threshold"`
}

// CommitSale is the one place a sale touches the database: stock decrements,
// the SALE ledger entry, the cash update, quote history, and outbox events
// all commit or roll back together. Stock rows are locked in item-id order
// so concurrent commits cannot deadlock.
func (r *Repository) CommitSale(ctx context.Context, q quotedomain.Quote, lines []fulfillmentdomain.LineItem, occurredAt time.Time) (domain.TransactionRecord, error) {
	needed := make(map[string]int)
	for _, l := range lines {
		needed[l.Item.ID] += l.Quantity
	}
	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	type decremented struct {
		onHand    int
		threshold int
	}
	after := make(map[string]decremented, len(ids))

	for _, id := range ids {
		var onHand, threshold int
		err = tx.QueryRow(ctx, `SELECT s.on_hand, c.restock_threshold
			FROM stock_levels s JOIN catalog_items c ON c.id = s.item_id
			WHERE s.item_id=$1 FOR UPDATE OF s`, id).Scan(&onHand, &threshold)
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("lock stock %s: %w", id, err)
		}
		if onHand < needed[id] {
			return domain.TransactionRecord{}, fmt.Errorf("%w: item %s has %d, sale needs %d",
				inventoryapp.ErrInsufficientStock, id, onHand, needed[id])
		}
		_, err = tx.Exec(ctx, `UPDATE stock_levels SET on_hand = on_hand - $1 WHERE item_id=$2`, needed[id], id)
		if err != nil {
			return domain.TransactionRecord{}, err
		}
		after[id] = decremented{onHand: onHand - needed[id], threshold: threshold}
	}

	var balance decimal.Decimal
	if err = tx.QueryRow(ctx, `SELECT balance FROM cash_balance WHERE id FOR UPDATE`).Scan(&balance); err != nil {
		return domain.TransactionRecord{}, err
	}
	newBalance := balance.Add(q.Total)
	if _, err = tx.Exec(ctx, `UPDATE cash_balance SET balance=$1 WHERE id`, newBalance); err != nil {
		return domain.TransactionRecord{}, err
	}

	record := domain.TransactionRecord{
		Kind:          domain.KindSale,
		Units:         q.TotalUnits,
		Amount:        q.Total,
		ResultingCash: newBalance,
		OccurredAt:    occurredAt,
	}
	err = tx.QueryRow(ctx, `INSERT INTO transactions (kind, units, amount, resulting_cash, occurred_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		record.Kind, record.Units, record.Amount, record.ResultingCash, record.OccurredAt).Scan(&record.ID)
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	for _, pl := range q.Lines {
		_, err = tx.Exec(ctx, `INSERT INTO quote_history (item_id, unit_price, quoted_at) VALUES ($1,$2,$3)`,
			pl.ItemID, pl.UnitPrice, q.QuotedAt)
		if err != nil {
			return domain.TransactionRecord{}, err
		}
	}

	traceparent := tracing.Traceparent(ctx)
	payload, _ := json.Marshal(saleCommittedEvent{
		TransactionID: record.ID,
		TotalUnits:    record.Units,
		Amount:        record.Amount,
		ResultingCash: record.ResultingCash,
		OccurredAt:    record.OccurredAt,
	})
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('sale',$1,$2,$3,$4,'pending')`,
		fmt.Sprintf("%d", record.ID), outbox.TypeSaleCommitted, payload, traceparent)
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	for _, id := range ids {
		d := after[id]
		if d.onHand >= d.threshold {
			continue
		}
		payload, _ := json.Marshal(belowThresholdEvent{ItemID: id, OnHand: d.onHand, Threshold: d.threshold})
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ('stock',$1,$2,$3,$4,'pending')`,
			id, outbox.TypeStockBelowThreshold, payload, traceparent)
		if err != nil {
			return domain.TransactionRecord{}, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.TransactionRecord{}, err
	}
	return record, nil
}

// Report reads the ledger as of a date. The cash figure reverses any
// transactions after asOf out of the live balance, so replays of historical
// request batches report period-correct numbers.
func (r *Repository) Report(ctx context.Context, asOf time.Time, recentLimit int) (domain.Report, error) {
	rep := domain.Report{AsOf: asOf}

	err := r.pool.QueryRow(ctx, `SELECT cb.balance - COALESCE(
			(SELECT SUM(amount) FROM transactions WHERE occurred_at > $1), 0)
		FROM cash_balance cb WHERE cb.id`, asOf).Scan(&rep.CashBalance)
	if err != nil {
		return domain.Report{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, s.on_hand, c.unit_price
		FROM catalog_items c JOIN stock_levels s ON s.item_id = c.id
		ORDER BY c.id`)
	if err != nil {
		return domain.Report{}, err
	}
	defer rows.Close()

	rep.InventoryValue = decimal.Zero
	for rows.Next() {
		var line domain.InventoryLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.OnHand, &line.UnitPrice); err != nil {
			return domain.Report{}, err
		}
		line.Value = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.OnHand)))
		rep.InventoryValue = rep.InventoryValue.Add(line.Value)
		rep.Inventory = append(rep.Inventory, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Report{}, err
	}

	txRows, err := r.pool.Query(ctx, `SELECT id, kind, COALESCE(item_id,''), units, amount, resulting_cash, occurred_at
		FROM transactions WHERE occurred_at <= $1
		ORDER BY occurred_at DESC, id DESC LIMIT $2`, asOf, recentLimit)
	if err != nil {
		return domain.Report{}, err
	}
	defer txRows.Close()

	for txRows.Next() {
		var t domain.TransactionRecord
		if err := txRows.Scan(&t.ID, &t.Kind, &t.ItemID, &t.Units, &t.Amount, &t.ResultingCash, &t.OccurredAt); err != nil {
			return domain.Report{}, err
		}
		rep.RecentTransactions = append(rep.RecentTransactions, t)
	}
	return rep, txRows.Err()
}

// RecentUnitPrices serves the quote engine's consistency lookback. Both
// bounds are applied so replayed simulation dates only see history committed
// at or before their own date.
func (r *Repository) RecentUnitPrices(ctx context.Context, itemID string, since, until time.Time) ([]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT unit_price FROM quote_history
		WHERE item_id=$1 AND quoted_at >= $2 AND quoted_at <= $3
		ORDER BY quoted_at DESC LIMIT 50`, itemID, since, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var p decimal.Decimal
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
