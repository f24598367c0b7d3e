package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasiliy-maslov/marketplace/internal/auth"
	handler "github.com/vasiliy-maslov/marketplace/internal/handler/http"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
}

func NewRouter(guard *auth.Guard, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
	r.Post("/auth/reset-password", h.Auth.ResetPassword)

	r.Get("/products", h.Product.List)
	r.Get("/products/featured", h.Product.Featured)
	r.Get("/products/{id}", h.Product.Get)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated)

		r.Get("/profile", h.Profile.Get)
		r.Put("/profile", h.Profile.Update)
	})

	// The count badge is public: it answers zero to anonymous callers.
	r.Get("/cart/count", h.Cart.Count)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireCustomer)

		r.Post("/cart/add", h.Cart.Add)
		r.Get("/cart", h.Cart.Get)
		r.Put("/cart/{id}", h.Cart.UpdateQuantity)
		r.Delete("/cart/remove/{id}", h.Cart.Remove)
		r.Post("/cart/checkout", h.Cart.Checkout)

		r.Get("/orders", h.Order.ListMine)
		r.Get("/orders/{id}", h.Order.Get)
		r.Post("/orders", h.Cart.Checkout)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireSupplier)

		r.Post("/products", h.Product.Create)
		r.Put("/products/{id}", h.Product.Update)
		r.Delete("/products/{id}", h.Product.Delete)
		r.Get("/supplier/products", h.Product.ListMine)

		r.Put("/orders/{id}/status", h.Order.UpdateStatus)
	})

	return r
}
