package domain

// State is the orchestrator's position in the fulfillment pipeline. The
// machine is strictly forward-progressing; no state is re-entered.
type State string

const (
	StateReceived      State = "received"
	StateResolving     State = "resolving"
	StateStockChecking State = "stock_checking"
	StateQuoting       State = "quoting"
	StateCommitting    State = "committing"
	StateDone          State = "done"
)

// Status is the terminal outcome of one order.
type Status string

const (
	StatusFulfilled          Status = "fulfilled"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusRejected           Status = "rejected"
)

// Rejection reasons surfaced in FulfillmentResult.
const (
	ReasonNoResolvableItems = "no_resolvable_items"
	ReasonNoStock           = "no_stock"
	ReasonCommitRejected    = "commit_rejected"
)
