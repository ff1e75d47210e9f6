package domain

import "github.com/shopspring/decimal"

// Seed returns the default paper-goods catalog. Prices are per sheet (or per
// piece for non-sheet products).
func Seed() Catalog {
	return NewCatalog([]Item{
		item("std-copy-paper", "Standard copy paper", "0.05", "0.02", 50, 200),
		item("a4-paper", "A4 paper", "0.05", "0.02", 100, 500),
		item("letter-paper", "Letter-sized paper", "0.06", "0.03", 100, 500),
		item("cardstock", "Cardstock", "0.15", "0.08", 50, 100),
		item("colored-paper", "Colored paper", "0.10", "0.05", 75, 250),
		item("glossy-paper", "Glossy paper", "0.20", "0.11", 40, 100),
		item("crepe-paper", "Crepe paper", "0.18", "0.09", 30, 50),
		item("patterned-paper", "Patterned paper", "0.25", "0.13", 30, 50),
		item("poster-paper", "Poster paper", "0.35", "0.18", 20, 25),
		item("kraft-paper", "Kraft paper", "0.12", "0.06", 50, 100),
		item("envelopes", "Envelopes", "0.08", "0.04", 100, 250),
		item("paper-plates", "Paper plates", "0.14", "0.07", 60, 100),
	})
}

func item(id, name, price, cost string, threshold, lot int) Item {
	return Item{
		ID:               id,
		Name:             name,
		UnitPrice:        decimal.RequireFromString(price),
		UnitCost:         decimal.RequireFromString(cost),
		RestockThreshold: threshold,
		RestockLotSize:   lot,
	}
}
