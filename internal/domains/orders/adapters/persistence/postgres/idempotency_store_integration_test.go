//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingpostgres "github.com/Apurer/brix-market/internal/domains/listings/adapters/persistence/postgres"
	listingdomain "github.com/Apurer/brix-market/internal/domains/listings/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/application"
	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
	"github.com/Apurer/brix-market/internal/platform/postgres/postgrestest"
)

func TestIdempotencyStore_TakenKeyLeavesTxUsable(t *testing.T) {
	db := postgrestest.Start(t)
	store := NewIdempotencyStore(db)
	orders := NewStore(db)
	ctx := context.Background()

	first, err := store.Remember(ctx, ports.IdempotencyRecord{BuyerID: 4, Key: "k", RequestHash: "h1", OrderID: 11})
	require.NoError(t, err)
	assert.Equal(t, int64(11), first.OrderID)

	err = platformpostgres.NewUnitOfWork(db).RunInTx(ctx, func(ctx context.Context) error {
		existing, err := store.Remember(ctx, ports.IdempotencyRecord{BuyerID: 4, Key: "k", RequestHash: "h2", OrderID: 12})
		require.ErrorIs(t, err, ports.ErrIdempotencyKeyTaken)
		require.NotNil(t, existing)
		assert.Equal(t, "h1", existing.RequestHash)
		// the transaction is not aborted, so later statements still run
		_, err = orders.Save(ctx, newPendingOrder(t, 4, existing.CreatedAt))
		return err
	})
	require.NoError(t, err)

	other, err := store.Remember(ctx, ports.IdempotencyRecord{BuyerID: 5, Key: "k", RequestHash: "h1", OrderID: 13})
	require.NoError(t, err)
	assert.Equal(t, int64(13), other.OrderID)
}

func TestEngine_ConcurrentPlacementsWithSameKeyReplay(t *testing.T) {
	db := postgrestest.Start(t)
	ctx := context.Background()
	catalog := listingpostgres.NewCatalog(db)
	_, err := catalog.Put(ctx, &listingdomain.Listing{ID: 1, Title: "Naju pears", Price: 32000, Quantity: 10, SellerID: 9})
	require.NoError(t, err)

	orders := NewStore(db)
	svc := application.NewService(orders, catalog,
		application.WithUnitOfWork(platformpostgres.NewUnitOfWork(db)),
		application.WithJournal(NewJournal(db)),
		application.WithIdempotencyStore(NewIdempotencyStore(db)),
	)
	buyer := userdomain.Principal{ID: 4, Role: userdomain.RoleUser}
	input := ordertypes.PlaceOrderInput{ListingID: 1, Quantity: 1, DeliveryAddress: "Gwangju", IdempotencyKey: "double-click"}

	const callers = 6
	ids := make([]int64, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			placed, err := svc.CreateOrder(ctx, buyer, input)
			errs[i] = err
			if err == nil {
				ids[i] = placed.Entity.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	mine, err := orders.FindActiveByBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
