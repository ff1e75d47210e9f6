package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/skotsonis/paperflow/internal/fulfillment/application"
	"github.com/skotsonis/paperflow/internal/fulfillment/domain"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	ledgerapp "github.com/skotsonis/paperflow/internal/ledger/application"
)

const dateLayout = "2006-01-02"

// IdempotencyStore guards duplicate order submissions. Seen claims the key;
// Release hands a claim back when the request failed for reasons the caller
// should retry.
type IdempotencyStore interface {
	OrderKey(key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Handler struct {
	log          *slog.Logger
	orchestrator *application.Orchestrator
	inventory    *inventoryapp.Service
	ledger       *ledgerapp.Service
	idem         IdempotencyStore
	tracer       trace.Tracer
}

// NewHandler wires the fulfillment API. idem may be nil when no redis is
// configured; duplicate submissions are then the caller's problem.
func NewHandler(log *slog.Logger, orchestrator *application.Orchestrator, inventory *inventoryapp.Service, ledger *ledgerapp.Service, idem IdempotencyStore) *Handler {
	return &Handler{
		log:          log,
		orchestrator: orchestrator,
		inventory:    inventory,
		ledger:       ledger,
		idem:         idem,
		tracer:       otel.Tracer("fulfillment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.submitOrder)
	r.Get("/report", h.report)
	r.Get("/inventory", h.inventorySnapshot)
	r.Get("/healthz", h.healthz)
	return r
}

type submitOrderReq struct {
	ID          string               `json:"id"`
	RawRequest  string               `json:"raw_request"`
	RequestDate string               `json:"request_date"`
	Lines       []domain.RequestLine `json:"lines"`
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	var req submitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(req.Lines) == 0 {
		http.Error(w, "order has no lines", http.StatusBadRequest)
		return
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			http.Error(w, "line quantity must be positive", http.StatusBadRequest)
			return
		}
	}

	simDate := time.Now().UTC()
	if req.RequestDate != "" {
		d, err := time.Parse(dateLayout, req.RequestDate)
		if err != nil {
			http.Error(w, "request_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		simDate = d
	}

	var claimedKey string
	if h.idem != nil {
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			claimedKey = h.idem.OrderKey(key)
			seen, err := h.idem.Seen(ctx, claimedKey)
			if err != nil {
				h.log.Error("idempotency check failed", "err", err)
				http.Error(w, "idempotency store unavailable", http.StatusServiceUnavailable)
				return
			}
			if seen {
				http.Error(w, "duplicate submission", http.StatusConflict)
				return
			}
		}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	result, err := h.orchestrator.Fulfill(ctx, domain.OrderRequest{
		ID:             req.ID,
		RawRequest:     req.RawRequest,
		SimulationDate: simDate,
		Lines:          req.Lines,
	})
	if err != nil {
		// Infrastructure fault: retryable by the caller, unlike a
		// business rejection in the result body. The idempotency claim
		// goes back so the retry is not refused as a duplicate.
		if claimedKey != "" {
			if rerr := h.idem.Release(ctx, claimedKey); rerr != nil {
				h.log.Error("idempotency release failed", "key", claimedKey, "err", rerr)
			}
		}
		h.log.Error("fulfillment failed", "order_id", req.ID, "err", err)
		http.Error(w, "fulfillment unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GenerateReport")
	defer span.End()

	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// End of day, so same-day transactions are included.
		asOf = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	rep, err := h.ledger.GenerateReport(ctx, asOf)
	if err != nil {
		h.log.Error("report failed", "err", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}

func (h *Handler) inventorySnapshot(w http.ResponseWriter, r *http.Request) {
	levels, err := h.inventory.Snapshot(r.Context())
	if err != nil {
		h.log.Error("inventory snapshot failed", "err", err)
		http.Error(w, "inventory unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(levels)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
