// Command catalog applies the catalog schema migrations.
package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewWithWriter(os.Stderr, "info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("component", "migrator", "schema", "catalog")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrator.Up(ctx, cfg.CatalogDatabaseURL, MigrationsFS, log); err != nil {
		log.Error("catalog migrations failed", "error", err)
		os.Exit(1) //nolint:gocritic
	}
}
