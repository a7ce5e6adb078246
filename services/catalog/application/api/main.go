package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/services/catalog/application/handlers"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// CatalogRoutes registers catalog endpoints on the provided chi router.
func CatalogRoutes(r chi.Router, a *app.Application) {
	Mount(r, appsvcs.New(a), a.Logger)
}

// Mount registers the catalog endpoints backed by svcs. Tests call it with
// in-memory services.
func Mount(r chi.Router, svcs *appsvcs.Services, log logger.Logger) {
	items := handlers.NewGetItemsHandler(svcs, log)
	r.Route("/catalog", func(r chi.Router) {
		r.Post("/saveItem", handlers.NewSaveItemHandler(svcs, log).Execute)
		r.Get("/getItems", items.Admin)
		r.Get("/getItemsForUsers", items.Users)
		r.Get("/getOneItem/{id}", handlers.NewGetOneItemHandler(svcs, log).Execute)
		r.Put("/updateItem/{id}", handlers.NewUpdateItemHandler(svcs, log).Execute)
		r.Post("/markUnavailable", handlers.NewMarkUnavailableHandler(svcs, log).Execute)
		r.Delete("/deleteItem/{id}", handlers.NewDeleteItemHandler(svcs, log).Execute)
	})
}
