// Package app carries shared infrastructure into service constructors.
package app

import (
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/media"
	"github.com/ghuser/storefront/pkg/telemetry"
	"github.com/ghuser/storefront/pkg/workflows"
)

// Application is the dependency container both processes build at startup.
// The API fills Db, Media and Metrics for the catalog routes; the worker
// leaves Db nil and sets TemporalClient. Redis is nil when the cache is
// unavailable and every consumer must tolerate that.
//
// Request-scoped code logs through the *Context methods so trace and request
// ids are attached.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	Media          media.Store
	Metrics        *telemetry.CatalogMetrics
	TemporalClient *workflows.TemporalClient // worker process only
}
