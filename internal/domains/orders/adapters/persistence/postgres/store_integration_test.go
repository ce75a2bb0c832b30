//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingpostgres "github.com/Apurer/brix-market/internal/domains/listings/adapters/persistence/postgres"
	listingdomain "github.com/Apurer/brix-market/internal/domains/listings/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/application"
	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
	"github.com/Apurer/brix-market/internal/platform/postgres/postgrestest"
)

func newPendingOrder(t *testing.T, buyerID int64, at time.Time) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.PlaceOrder{
		BuyerID:         buyerID,
		Listing:         domain.ListingSnapshot{ListingID: 1, Title: "Naju pears", UnitPrice: 32000, SellerID: 9},
		Quantity:        2,
		DeliveryAddress: "Gwangju",
		OrderDate:       at,
		LeadDays:        domain.DefaultLeadDays,
	})
	require.NoError(t, err)
	return order
}

func TestStore_SaveFindAndList(t *testing.T) {
	db := postgrestest.Start(t)
	store := NewStore(db)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	older, err := store.Save(ctx, newPendingOrder(t, 4, base))
	require.NoError(t, err)
	require.NotZero(t, older.Entity.ID)
	newer, err := store.Save(ctx, newPendingOrder(t, 4, base.Add(time.Hour)))
	require.NoError(t, err)
	cancelled := newPendingOrder(t, 4, base.Add(2*time.Hour))
	_, err = store.Save(ctx, cancelled)
	require.NoError(t, err)
	require.NoError(t, cancelled.Cancel())
	_, err = store.Save(ctx, cancelled)
	require.NoError(t, err)

	fetched, err := store.FindByID(ctx, older.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(32000), fetched.Entity.UnitPrice)
	assert.Equal(t, base.AddDate(0, 0, 3), fetched.Entity.ExpectedDeliveryDate)

	mine, err := store.FindActiveByBuyer(ctx, 4)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.Entity.ID, mine[0].Entity.ID)
	assert.Equal(t, older.Entity.ID, mine[1].Entity.ID)

	_, err = store.FindByID(ctx, 999)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := postgrestest.Start(t)
	store := NewStore(db)
	journal := NewJournal(db)
	uow := platformpostgres.NewUnitOfWork(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, newPendingOrder(t, 4, time.Now()))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = uow.RunInTx(ctx, func(ctx context.Context) error {
		current, err := store.FindByIDForUpdate(ctx, saved.Entity.ID)
		if err != nil {
			return err
		}
		if err := current.Entity.TransitionTo(domain.StatusApproved); err != nil {
			return err
		}
		if _, err := store.Save(ctx, current.Entity); err != nil {
			return err
		}
		if err := journal.Append(ctx, domain.NewEvent("01HZZZZZZZZZZZZZZZZZZZZZZZ", domain.EventStatusChanged, domain.StatusPending, current.Entity, 9, time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := store.FindByID(ctx, saved.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, after.Entity.Status)
	events, err := journal.ListByOrder(ctx, saved.Entity.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEngine_ConcurrentTransitionsSerialize(t *testing.T) {
	db := postgrestest.Start(t)
	ctx := context.Background()
	catalog := listingpostgres.NewCatalog(db)
	_, err := catalog.Put(ctx, &listingdomain.Listing{ID: 1, Title: "Naju pears", Price: 32000, Quantity: 10, SellerID: 9})
	require.NoError(t, err)

	journal := NewJournal(db)
	svc := application.NewService(NewStore(db), catalog,
		application.WithUnitOfWork(platformpostgres.NewUnitOfWork(db)),
		application.WithJournal(journal),
		application.WithIdempotencyStore(NewIdempotencyStore(db)),
	)
	buyer := userdomain.Principal{ID: 4, Role: userdomain.RoleUser}
	seller := userdomain.Principal{ID: 9, Role: userdomain.RoleUser}

	placed, err := svc.CreateOrder(ctx, buyer, ordertypes.PlaceOrderInput{
		ListingID: 1, Quantity: 1, DeliveryAddress: "Gwangju", IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	replayed, err := svc.CreateOrder(ctx, buyer, ordertypes.PlaceOrderInput{
		ListingID: 1, Quantity: 1, DeliveryAddress: "Gwangju", IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	assert.Equal(t, placed.Entity.ID, replayed.Entity.ID)

	id := placed.Entity.ID
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.CancelOrder(ctx, buyer, ordertypes.OrderIdentifier{ID: id})
				return
			}
			_, _ = svc.ChangeStatus(ctx, seller, ordertypes.ChangeStatusInput{OrderID: id, Status: "APPROVED"})
		}(i)
	}
	wg.Wait()

	final, err := svc.GetOrder(ctx, ordertypes.OrderIdentifier{ID: id})
	require.NoError(t, err)
	events, err := journal.ListByOrder(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, final.Entity.Status, events[len(events)-1].CurrentStatus)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].CurrentStatus, events[i].PreviousStatus)
	}

	require.NoError(t, journal.MarkDispatched(ctx, events[0].ID, time.Now()))
	events, err = journal.ListByOrder(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, events[0].DispatchedAt)
}
