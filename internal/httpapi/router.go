package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the cart routes. Session scoping applies to the cart
// subtree only; health stays open for probes.
func NewRouter(h *CartHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Get("/api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{id}", h.UpdateQuantity)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.RemoveCoupon)
	})

	return r
}
