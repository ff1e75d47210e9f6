package domain

import "github.com/shopspring/decimal"

// Item is immutable reference data describing one sellable paper product.
// UnitPrice is what customers pay per unit; UnitCost is what the supplier
// charges when we restock.
type Item struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name"`
	UnitPrice        decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	UnitCost         decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	RestockThreshold int             `json:"restock_threshold" yaml:"restock_threshold"`
	RestockLotSize   int             `json:"restock_lot_size" yaml:"restock_lot_size"`
}

// Catalog is the full set of sellable items, seeded once at startup.
type Catalog struct {
	items []Item
	byID  map[string]Item
}

func NewCatalog(items []Item) Catalog {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return Catalog{items: items, byID: byID}
}

func (c Catalog) Items() []Item { return c.items }

func (c Catalog) ByID(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

func (c Catalog) Len() int { return len(c.items) }
