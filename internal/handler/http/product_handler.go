package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/cart"
	"github.com/vasiliy-maslov/marketplace/internal/notify"
	"github.com/vasiliy-maslov/marketplace/internal/product"
)

type ProductHandler struct {
	products product.Service
	carts    cart.Service
	notifier *notify.Service
}

func NewProductHandler(products product.Service, carts cart.Service, notifier *notify.Service) *ProductHandler {
	return &ProductHandler{products: products, carts: carts, notifier: notifier}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	products, err := h.products.List(r.Context(), page)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Featured(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input product.CreateInput
	if !decodeBody(w, r, &input) {
		return
	}

	p, err := h.products.Create(r.Context(), identity.ID, input)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var patch product.UpdateInput
	if !decodeBody(w, r, &patch) {
		return
	}

	if err := h.products.Update(r.Context(), id, identity.ID, patch); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
}

// Delete soft-deletes the product and tells customers who still hold it in
// an active cart. The notifications are best-effort and happen after the
// delete is already committed.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.products.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondWithError(w, err)
		return
	}

	holders, err := h.carts.UsersHoldingProduct(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("product_id", id).Msg("failed to list cart holders for delete notice")
	}
	for _, userID := range holders {
		h.notifier.ProductUnavailable(r.Context(), userID, p.Name)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	products, err := h.products.ListBySupplier(r.Context(), identity.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}
