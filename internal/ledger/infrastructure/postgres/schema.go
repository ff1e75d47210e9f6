package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	unit_price        NUMERIC(12,4) NOT NULL,
	unit_cost         NUMERIC(12,4) NOT NULL,
	restock_threshold INT NOT NULL,
	restock_lot_size  INT NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_levels (
	item_id TEXT PRIMARY KEY REFERENCES catalog_items(id),
	on_hand INT NOT NULL CHECK (on_hand >= 0)
);

CREATE TABLE IF NOT EXISTS cash_balance (
	id      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
	balance NUMERIC(14,4) NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id             BIGSERIAL PRIMARY KEY,
	kind           TEXT NOT NULL,
	item_id        TEXT,
	units          INT NOT NULL DEFAULT 0,
	amount         NUMERIC(14,4) NOT NULL,
	resulting_cash NUMERIC(14,4) NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS transactions_occurred_idx ON transactions (occurred_at, id);

CREATE TABLE IF NOT EXISTS quote_history (
	id         BIGSERIAL PRIMARY KEY,
	item_id    TEXT NOT NULL,
	unit_price NUMERIC(12,4) NOT NULL,
	quoted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS quote_history_item_idx ON quote_history (item_id, quoted_at);

CREATE TABLE IF NOT EXISTS outbox (
	id             BIGSERIAL PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	type           TEXT NOT NULL,
	payload        JSONB NOT NULL,
	traceparent    TEXT,
	status         TEXT NOT NULL DEFAULT 'pending',
	relay_id       TEXT,
	lease_until    TIMESTAMPTZ,
	retry_count    INT NOT NULL DEFAULT 0,
	last_error     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates all tables. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// Seed loads the catalog and opening positions. Existing rows are left
// untouched, so restarting the service never resets state.
func Seed(ctx context.Context, pool *pgxpool.Pool, catalog catalogdomain.Catalog, initialCash decimal.Decimal, initialLots int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, it := range catalog.Items() {
		_, err = tx.Exec(ctx, `INSERT INTO catalog_items (id, name, unit_price, unit_cost, restock_threshold, restock_lot_size)
			VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (id) DO NOTHING`,
			it.ID, it.Name, it.UnitPrice, it.UnitCost, it.RestockThreshold, it.RestockLotSize)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO stock_levels (item_id, on_hand) VALUES ($1,$2) ON CONFLICT (item_id) DO NOTHING`,
			it.ID, it.RestockLotSize*initialLots)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO cash_balance (id, balance) VALUES (TRUE,$1) ON CONFLICT (id) DO NOTHING`, initialCash)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
