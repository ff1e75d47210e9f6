package application

import (
	"context"

	"github.com/skotsonis/paperflow/internal/catalog/domain"
)

// Resolver maps one free-text item description to a catalog item. A false
// second return means the description could not be resolved; that is a
// normal outcome, not an error. A non-nil error means the resolver's backend
// failed and the caller may count it against its attempt budget.
//
// Implementations must be stable for identical input within a single order.
type Resolver interface {
	Resolve(ctx context.Context, rawDescription string, catalog domain.Catalog) (domain.Item, bool, error)
}
