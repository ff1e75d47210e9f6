package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryLine is one catalog item's position in a report snapshot, valued
// at its selling price.
type InventoryLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	OnHand    int             `json:"on_hand"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// Report is a pure read over ledger and inventory state as of a date.
// Generating it twice with no intervening commits yields identical output.
type Report struct {
	AsOf               time.Time           `json:"as_of"`
	CashBalance        decimal.Decimal     `json:"cash_balance"`
	Inventory          []InventoryLine     `json:"inventory"`
	InventoryValue     decimal.Decimal     `json:"inventory_value"`
	RecentTransactions []TransactionRecord `json:"recent_transactions"`
}
