package application

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalogapp "github.com/skotsonis/paperflow/internal/catalog/application"
	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/fulfillment/domain"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	ledgerapp "github.com/skotsonis/paperflow/internal/ledger/application"
	ledgerdomain "github.com/skotsonis/paperflow/internal/ledger/domain"
	quoteapp "github.com/skotsonis/paperflow/internal/quote/application"
	"github.com/skotsonis/paperflow/pkg/keylock"
)

// Orchestrator drives one order through resolve, stock-check, quote, and
// commit. Business failures end up in the FulfillmentResult; a non-nil error
// means infrastructure failed and the caller may retry the whole order.
type Orchestrator struct {
	log             *slog.Logger
	tracer          trace.Tracer
	catalog         catalogdomain.Catalog
	resolver        catalogapp.Resolver
	inventory       *inventoryapp.Service
	quotes          *quoteapp.Engine
	ledger          *ledgerapp.Service
	locks           *keylock.Map
	resolveAttempts int
}

type Option func(*Orchestrator)

// WithResolveAttempts bounds resolver calls per line, for resolvers with
// transient backends. The default is one attempt; resolution is never
// retried once a line has resolved.
func WithResolveAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.resolveAttempts = n
		}
	}
}

func NewOrchestrator(
	log *slog.Logger,
	catalog catalogdomain.Catalog,
	resolver catalogapp.Resolver,
	inventory *inventoryapp.Service,
	quotes *quoteapp.Engine,
	ledger *ledgerapp.Service,
	locks *keylock.Map,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		log:             log,
		tracer:          otel.Tracer("fulfillment-orchestrator"),
		catalog:         catalog,
		resolver:        resolver,
		inventory:       inventory,
		quotes:          quotes,
		ledger:          ledger,
		locks:           locks,
		resolveAttempts: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Fulfill(ctx context.Context, req domain.OrderRequest) (domain.FulfillmentResult, error) {
	ctx, span := o.tracer.Start(ctx, "Fulfill",
		trace.WithAttributes(attribute.String("order_id", req.ID), attribute.Int("lines", len(req.Lines))))
	defer span.End()

	oc := domain.NewOrderContext(req)
	log := o.log.With("order_id", req.ID)

	oc.Advance(domain.StateResolving)
	if err := o.resolve(ctx, oc); err != nil {
		return domain.FulfillmentResult{}, err
	}
	if len(oc.Resolved) == 0 {
		log.Info("order rejected", "reason", domain.ReasonNoResolvableItems)
		return o.finish(oc, domain.StatusRejected, domain.ReasonNoResolvableItems), nil
	}

	// Everything from the stock check through the commit is a
	// check-then-act sequence per item; hold each touched item's lock for
	// the whole window.
	ids := make([]string, 0, len(oc.Resolved))
	for _, l := range oc.Resolved {
		ids = append(ids, l.Item.ID)
	}
	unlock := o.locks.Lock(ids...)
	defer unlock()

	oc.Advance(domain.StateStockChecking)
	if err := o.checkStock(ctx, oc); err != nil {
		return domain.FulfillmentResult{}, err
	}
	if len(oc.Surviving) == 0 {
		log.Info("order rejected", "reason", domain.ReasonNoStock)
		return o.finish(oc, domain.StatusRejected, domain.ReasonNoStock), nil
	}

	oc.Advance(domain.StateQuoting)
	q, err := o.quotes.Price(ctx, oc.Surviving, req.SimulationDate)
	if err != nil {
		return domain.FulfillmentResult{}, err
	}
	oc.Quote = &q

	oc.Advance(domain.StateCommitting)
	commit, err := o.ledger.CommitSale(ctx, q, oc.Surviving, req.SimulationDate)
	if err != nil {
		return domain.FulfillmentResult{}, err
	}
	oc.Commit = &commit
	if commit.Status == ledgerdomain.CommitRejected {
		log.Warn("order rejected at commit", "reason", commit.Reason)
		return o.finish(oc, domain.StatusRejected, domain.ReasonCommitRejected), nil
	}

	status := domain.StatusFulfilled
	if len(oc.Surviving) < len(req.Lines) {
		status = domain.StatusPartiallyFulfilled
	}
	log.Info("order committed",
		"status", string(status),
		"committed_lines", len(oc.Surviving),
		"total", q.Total.String())
	return o.finish(oc, status, ""), nil
}

// resolve maps every request line to a catalog item, setting aside lines no
// attempt could resolve. Unresolved is a normal outcome per line.
func (o *Orchestrator) resolve(ctx context.Context, oc *domain.OrderContext) error {
	for _, line := range oc.Request.Lines {
		item, ok, err := o.resolveLine(ctx, line.Description)
		if err != nil {
			return err
		}
		if !ok {
			oc.Unresolved = append(oc.Unresolved, line.Description)
			continue
		}
		oc.Resolved = append(oc.Resolved, domain.LineItem{
			Item:           item,
			Quantity:       line.Quantity,
			RawDescription: line.Description,
		})
	}
	return nil
}

func (o *Orchestrator) resolveLine(ctx context.Context, description string) (catalogdomain.Item, bool, error) {
	var lastErr error
	for attempt := 0; attempt < o.resolveAttempts; attempt++ {
		item, ok, err := o.resolver.Resolve(ctx, description, o.catalog)
		if err != nil {
			lastErr = err
			continue
		}
		return item, ok, nil
	}
	// Every attempt hit a backend failure. That is an infrastructure fault,
	// not an unresolved line; the whole order is retryable.
	return catalogdomain.Item{}, false, fmt.Errorf("resolve %q: %w", description, lastErr)
}

// checkStock runs ensure-available per resolved line and drops lines whose
// stock stays short after the single restock attempt. Claims are tracked per
// item so two lines of the same item cannot both count the same stock.
func (o *Orchestrator) checkStock(ctx context.Context, oc *domain.OrderContext) error {
	claimed := make(map[string]int)
	for _, line := range oc.Resolved {
		avail, err := o.inventory.EnsureAvailable(ctx, line.Item, claimed[line.Item.ID]+line.Quantity, oc.Request.SimulationDate)
		if err != nil {
			return err
		}
		free := avail.OnHand - claimed[line.Item.ID]
		if free < line.Quantity {
			oc.OutOfStock = append(oc.OutOfStock, domain.OutOfStockLine{
				Description: line.RawDescription,
				Requested:   line.Quantity,
				Available:   free,
			})
			continue
		}
		claimed[line.Item.ID] += line.Quantity
		oc.Surviving = append(oc.Surviving, line)
	}
	return nil
}

func (o *Orchestrator) finish(oc *domain.OrderContext, status domain.Status, reason string) domain.FulfillmentResult {
	oc.Advance(domain.StateDone)
	res := domain.FulfillmentResult{
		OrderID:         oc.Request.ID,
		Status:          status,
		Unresolved:      oc.Unresolved,
		OutOfStock:      oc.OutOfStock,
		Quote:           oc.Quote,
		RejectionReason: reason,
	}
	if reason == domain.ReasonCommitRejected && oc.Commit != nil {
		res.RejectionReason = oc.Commit.Reason
	}
	if status == domain.StatusFulfilled || status == domain.StatusPartiallyFulfilled {
		res.CommittedLines = oc.Surviving
		if oc.Commit != nil {
			res.Transaction = &oc.Commit.Record
		}
	}
	return res
}
