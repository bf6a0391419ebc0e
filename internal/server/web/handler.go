// Package web exposes the two payment confirmation entry points over HTTP:
// the provider's asynchronous push and the user-initiated status poll. Both
// carry the same body shape and feed the same idempotent reconcile call, so
// duplicates and reordering between the paths are harmless.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/quotakeeper/internal/common"
	"github.com/dmitrijs2005/quotakeeper/internal/logging"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

// Reconciler is the slice of the payment service the handlers need.
type Reconciler interface {
	Reconcile(ctx context.Context, paymentID, providerStatus, providerRef string) (models.PaymentStatus, error)
}

type Handler struct {
	reconciler Reconciler
	logger     logging.Logger
}

func NewHandler(r Reconciler, logger logging.Logger) *Handler {
	return &Handler{reconciler: r, logger: logger}
}

// Mux returns the HTTP routes served by this component.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/payment", h.handleReconcile)
	mux.HandleFunc("POST /payments/check", h.handleReconcile)
	return mux
}

type reconcileRequest struct {
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref"`
}

type reconcileResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	status, err := h.reconciler.Reconcile(r.Context(), req.PaymentID, req.Status, req.ProviderRef)
	if err != nil {
		if errors.Is(err, common.ErrorUnknownPayment) {
			http.Error(w, "unknown payment", http.StatusNotFound)
			return
		}
		h.logger.Error(r.Context(), "reconcile failed", "payment_id", req.PaymentID, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reconcileResponse{PaymentID: req.PaymentID, Status: string(status)})
}
