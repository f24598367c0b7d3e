package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/cart"
)

type CartHandler struct {
	carts cart.Service
	guard *auth.Guard
}

func NewCartHandler(carts cart.Service, guard *auth.Guard) *CartHandler {
	return &CartHandler{carts: carts, guard: guard}
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input struct {
		ProductID string          `json:"product_id"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	itemID, err := h.carts.AddItem(r.Context(), identity.ID, input.ProductID, input.Quantity, input.Price)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"cart_item_id": itemID,
		"message":      "product added to cart",
	})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	lines, err := h.carts.GetUserCart(r.Context(), identity.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": lines})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	itemID := chi.URLParam(r, "id")

	var input struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), identity.ID, itemID, input.Quantity); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "quantity updated"})
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	itemID := chi.URLParam(r, "id")

	if err := h.carts.RemoveItem(r.Context(), identity.ID, itemID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

// Count serves the cart badge shown on every page, anonymous visitors
// included. Any credential problem degrades to a zero count with HTTP 200.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	identity, err := h.guard.Identify(r)
	if err != nil {
		respondWithJSON(w, http.StatusOK, map[string]int64{"count": 0})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{
		"count": h.carts.Count(r.Context(), identity.ID),
	})
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	orderID, err := h.carts.Checkout(r.Context(), identity.ID, input.ShippingAddress)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"order_id": orderID,
		"message":  "order placed successfully",
	})
}
