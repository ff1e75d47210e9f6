package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	catalogapp "github.com/skotsonis/paperflow/internal/catalog/application"
	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/catalog/infrastructure/lookup"
	"github.com/skotsonis/paperflow/internal/fulfillment/application"
	"github.com/skotsonis/paperflow/pkg/keylock"
)

type fakeIdem struct {
	claimed  map[string]bool
	released []string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{claimed: make(map[string]bool)}
}

func (f *fakeIdem) OrderKey(key string) string { return "idem:order:" + key }

func (f *fakeIdem) Seen(ctx context.Context, key string) (bool, error) {
	if f.claimed[key] {
		return true, nil
	}
	f.claimed[key] = true
	return false, nil
}

func (f *fakeIdem) Release(ctx context.Context, key string) error {
	delete(f.claimed, key)
	f.released = append(f.released, key)
	return nil
}

type erroringResolver struct{ err error }

func (e erroringResolver) Resolve(ctx context.Context, rawDescription string, catalog catalogdomain.Catalog) (catalogdomain.Item, bool, error) {
	return catalogdomain.Item{}, false, e.err
}

func newTestHandler(resolver catalogapp.Resolver, idem IdempotencyStore) *Handler {
	log := slog.Default()
	catalog := catalogdomain.NewCatalog([]catalogdomain.Item{
		{ID: "a4-paper", Name: "A4 paper", UnitPrice: decimal.RequireFromString("0.05")},
	})
	// The pipeline never gets past resolution in these tests, so the
	// downstream services stay unwired.
	orch := application.NewOrchestrator(log, catalog, resolver, nil, nil, nil, keylock.New())
	return NewHandler(log, orch, nil, nil, idem)
}

func postOrder(t *testing.T, h *Handler, idemKey string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"id":"order-1","lines":[{"description":"balloons","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", idemKey)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestSubmitOrder_InfraFaultFreesIdempotencyKey(t *testing.T) {
	idem := newFakeIdem()
	h := newTestHandler(erroringResolver{err: errors.New("classifier unreachable")}, idem)

	rec := postOrder(t, h, "k-1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if idem.claimed["idem:order:k-1"] {
		t.Fatal("infrastructure fault must release the idempotency claim")
	}
	if len(idem.released) != 1 || idem.released[0] != "idem:order:k-1" {
		t.Errorf("released = %v", idem.released)
	}

	// The retry the caller is entitled to must not be refused as a
	// duplicate.
	rec = postOrder(t, h, "k-1")
	if rec.Code == http.StatusConflict {
		t.Fatal("retry after infrastructure fault got 409")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("retry status = %d, want 500", rec.Code)
	}
}

func TestSubmitOrder_DuplicateKeyAfterOutcomeConflicts(t *testing.T) {
	idem := newFakeIdem()
	// No catalog item matches "balloons", so the order completes with a
	// business rejection. That is an outcome; the claim stands.
	h := newTestHandler(lookup.NewResolver(), idem)

	rec := postOrder(t, h, "k-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !idem.claimed["idem:order:k-2"] {
		t.Fatal("completed order must keep its idempotency claim")
	}

	rec = postOrder(t, h, "k-2")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
}
