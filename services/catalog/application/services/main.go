package services

import (
	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/services/catalog/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Catalog *CatalogService
}

// New wires the catalog application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewItemRepository(a.Db, a.EventBus)

	var itemCache ItemCache
	if a.Redis != nil {
		itemCache = cache.NewItemCache(a.Redis)
	}
	var orphans OrphanReporter
	if a.EventBus != nil {
		orphans = NewEventOrphanReporter(a.EventBus)
	}

	return &Services{
		Catalog: NewCatalogService(repo, a.Media, itemCache, orphans, a.Metrics, a.Logger),
	}
}
