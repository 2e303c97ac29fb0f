package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/fetcher"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

// SnapshotService resolves organization ids to donation snapshots.
type SnapshotService interface {
	Snapshot(ctx context.Context, orgID string) (donation.Snapshot, error)
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// Handlers holds the HTTP handlers of the proxy.
type Handlers struct {
	service SnapshotService
	ready   atomic.Bool
}

// NewHandlers creates handlers backed by service.
func NewHandlers(service SnapshotService) *Handlers {
	if service == nil {
		panic("snapshot service cannot be nil")
	}
	return &Handlers{service: service}
}

// SetReady flips the readiness reported by /ready.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Donation serves GET /donations/{org_id}.
func (h *Handlers) Donation(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "org_id")

	snap, err := h.service.Snapshot(r.Context(), orgID)
	if err != nil {
		status, msg := errorStatus(err)
		event := hlog.FromRequest(r).Warn()
		if status == http.StatusInternalServerError {
			event = hlog.FromRequest(r).Error()
		}
		event.
			Err(err).
			Str("org_id", orgID).
			Int("status", status).
			Msg("Donation lookup failed")

		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Ready serves GET /ready. It reports 503 until SetReady(true) is called.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "NOT READY")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// errorStatus maps a lookup error to a status code and a client-safe
// message. Upstream details stay in the log.
func errorStatus(err error) (int, string) {
	var fetchErr *fetcher.FetchError
	switch {
	case errors.Is(err, donation.ErrInvalidOrgID):
		return http.StatusBadRequest, "invalid organization id"
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "upstream fetch failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
