package domain

import (
	ledgerdomain "github.com/skotsonis/paperflow/internal/ledger/domain"
	quotedomain "github.com/skotsonis/paperflow/internal/quote/domain"
)

// OrderContext accumulates one order's state as it moves through the
// pipeline. It is owned by a single fulfillment run and never shared across
// concurrent orders.
type OrderContext struct {
	Request    OrderRequest
	State      State
	Resolved   []LineItem
	Unresolved []string
	OutOfStock []OutOfStockLine
	Surviving  []LineItem
	Quote      *quotedomain.Quote
	Commit     *ledgerdomain.CommitResult
}

func NewOrderContext(req OrderRequest) *OrderContext {
	return &OrderContext{Request: req, State: StateReceived}
}

// Advance moves the machine forward. States only progress; the pipeline
// never loops back.
func (c *OrderContext) Advance(s State) { c.State = s }
