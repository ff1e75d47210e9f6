package domain

import (
	"time"

	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
)

// RequestLine is one raw line of a customer order before resolution.
type RequestLine struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// OrderRequest is the input to one fulfillment run. SimulationDate stands in
// for "now" so historical request batches can be replayed in order.
type OrderRequest struct {
	ID             string        `json:"id"`
	RawRequest     string        `json:"raw_request"`
	SimulationDate time.Time     `json:"simulation_date"`
	Lines          []RequestLine `json:"lines"`
}

// LineItem is a request line bound to exactly one catalog item. Immutable
// once resolved.
type LineItem struct {
	Item           catalogdomain.Item `json:"item"`
	Quantity       int                `json:"quantity"`
	RawDescription string             `json:"raw_description"`
}
