package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Seba-07/bysimmed-production-console/internal/production"
	"github.com/Seba-07/bysimmed-production-console/internal/timer"
)

type ProductionHandler struct {
	Service *production.Service
}

// confirmReq gates the destructive actions: reset and order completion do
// nothing unless the caller sends {"confirm": true}.
type confirmReq struct {
	Confirm bool `json:"confirm"`
}

func (h *ProductionHandler) Register(r *chi.Mux) {
	r.Get("/production/orders", h.listOrders)
	r.Get("/production/dashboard", h.dashboard)
	r.Get("/inventory/components", h.listComponents)

	r.Post("/production/orders/{id}/products/{pid}/start", h.product(h.Service.StartProduct))
	r.Post("/production/orders/{id}/products/{pid}/pause", h.product(h.Service.PauseProduct))
	r.Post("/production/orders/{id}/products/{pid}/reset", h.confirmed(h.product(h.Service.ResetProduct)))
	r.Post("/production/orders/{id}/products/{pid}/complete", h.product(h.Service.CompleteProduct))

	r.Post("/production/orders/{id}/products/{pid}/components/{cid}/start", h.component(h.Service.StartComponent))
	r.Post("/production/orders/{id}/products/{pid}/components/{cid}/pause", h.component(h.Service.PauseComponent))
	r.Post("/production/orders/{id}/products/{pid}/components/{cid}/reset", h.confirmed(h.component(h.Service.ResetComponent)))
	r.Post("/production/orders/{id}/products/{pid}/components/{cid}/complete", h.component(h.Service.CompleteComponent))

	r.Post("/production/orders/{id}/complete", h.confirmed(h.completeOrder))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, production.ErrOrderNotFound),
		errors.Is(err, production.ErrProductNotFound),
		errors.Is(err, timer.ErrNotFound),
		errors.Is(err, timer.ErrComponentNotFound):
		return http.StatusNotFound
	case errors.Is(err, timer.ErrComponentsOpen),
		errors.Is(err, timer.ErrAlreadyCompleted),
		errors.Is(err, timer.ErrAlreadyRunning),
		errors.Is(err, timer.ErrNotRunning),
		errors.Is(err, production.ErrOrderNotDone):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// confirmed rejects the request with 428 unless the body confirms the
// action. Declining is a no-op by design.
func (h *ProductionHandler) confirmed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Confirm {
			writeJSON(w, http.StatusPreconditionRequired, map[string]string{
				"error": "confirmation required: send {\"confirm\": true}",
			})
			return
		}
		next(w, r)
	}
}

func (h *ProductionHandler) product(op func(ctx context.Context, orderID, productID string) (production.TransitionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := op(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *ProductionHandler) component(op func(ctx context.Context, orderID, productID, componentID string) (production.TransitionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := op(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "pid"), chi.URLParam(r, "cid"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *ProductionHandler) completeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.Service.CompleteOrder(ctx, orderID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": orderID, "estado": "completada"})
}

func (h *ProductionHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	views, err := h.Service.ActiveOrders(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ProductionHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.Service.Dashboard(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProductionHandler) listComponents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	comps, err := h.Service.Components(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comps)
}
