package api

import (
	"context"
	"fmt"
	"log/slog"

	listingmemory "github.com/Apurer/brix-market/internal/domains/listings/adapters/memory"
	listingpostgres "github.com/Apurer/brix-market/internal/domains/listings/adapters/persistence/postgres"
	listingports "github.com/Apurer/brix-market/internal/domains/listings/ports"
	ordermemory "github.com/Apurer/brix-market/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/Apurer/brix-market/internal/domains/orders/adapters/persistence/postgres"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
	usermemory "github.com/Apurer/brix-market/internal/domains/users/adapters/memory"
	userpostgres "github.com/Apurer/brix-market/internal/domains/users/adapters/persistence/postgres"
	userports "github.com/Apurer/brix-market/internal/domains/users/ports"
	"github.com/Apurer/brix-market/internal/platform/migrations"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
)

// Stores bundles the persistence adapters shared by the processes.
type Stores struct {
	Orders      orderports.Store
	Journal     orderports.EventJournal
	Idempotency orderports.IdempotencyStore
	UnitOfWork  orderports.UnitOfWork
	Listings    listingports.Catalog
	Users       userports.Repository
	// Durable is false when the process runs on in-memory adapters.
	Durable bool
}

// BuildStores wires PostgreSQL adapters when a DSN is configured and reachable, otherwise in-memory ones.
// The returned cleanup closes the connection pool.
func BuildStores(ctx context.Context, cfg Config, logger *slog.Logger) (*Stores, func(), error) {
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return &Stores{
			Orders:      ordermemory.NewStore(),
			Journal:     ordermemory.NewJournal(),
			Idempotency: ordermemory.NewIdempotencyStore(),
			UnitOfWork:  ordermemory.NewUnitOfWork(),
			Listings:    listingmemory.NewCatalog(),
			Users:       usermemory.NewRepository(),
		}, cleanup, nil
	}
	if err := migrations.Run(db.WithContext(ctx)); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("order stores configured with postgres")
	return &Stores{
		Orders:      orderpostgres.NewStore(db),
		Journal:     orderpostgres.NewJournal(db),
		Idempotency: orderpostgres.NewIdempotencyStore(db),
		UnitOfWork:  platformpostgres.NewUnitOfWork(db),
		Listings:    listingpostgres.NewCatalog(db),
		Users:       userpostgres.NewRepository(db),
		Durable:     true,
	}, cleanup, nil
}
