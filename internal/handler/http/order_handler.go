package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/order"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	userID, err := uuid.FromString(identity.ID)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: malformed user id", apperr.ErrInvalidArgument))
		return
	}

	orders, err := h.orders.GetByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	userID, err := uuid.FromString(identity.ID)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: malformed user id", apperr.ErrInvalidArgument))
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		// A malformed order id can never match an order the caller owns.
		respondWithError(w, apperr.ErrNotFound)
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID, userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, apperr.ErrNotFound)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	status, err := order.ParseStatus(input.Status)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, status); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}
