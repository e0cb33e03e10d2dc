// Package masterdata groups the catalogue entities behind the stock
// workflow: categories, products and warehouses.
package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/masterdata/categories"
	"github.com/stocklane/stocklane/internal/masterdata/products"
	"github.com/stocklane/stocklane/internal/masterdata/warehouses"
)

// Handler bundles the master data HTTP handlers.
type Handler struct {
	categories *categories.Handler
	products   *products.Handler
	warehouses *warehouses.Handler
}

// NewHandler wires repositories, services and handlers for all entities.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool) *Handler {
	return &Handler{
		categories: categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool))),
		products:   products.NewHandler(logger, products.NewService(products.NewRepository(pool))),
		warehouses: warehouses.NewHandler(logger, warehouses.NewService(warehouses.NewRepository(pool))),
	}
}

// MountRoutes registers all master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/categories", h.categories.MountRoutes)
	r.Route("/products", h.products.MountRoutes)
	r.Route("/warehouses", h.warehouses.MountRoutes)
}
