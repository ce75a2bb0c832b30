package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
	"github.com/Apurer/brix-market/internal/shared/projection"
)

var _ ports.Store = (*Store)(nil)

// Store persists orders in PostgreSQL using GORM-mapped columns.
// Calls join the transaction carried by the context, if any.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore wires a PostgreSQL-backed store. Schema is owned by platform/migrations.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

type orderRecord struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BuyerID              int64     `gorm:"column:buyer_id;index:idx_orders_buyer_status"`
	ListingID            int64     `gorm:"column:listing_id;index"`
	ListingTitle         string    `gorm:"column:listing_title"`
	UnitPrice            int64     `gorm:"column:unit_price"`
	SellerID             int64     `gorm:"column:seller_id;index"`
	Quantity             int32     `gorm:"column:quantity"`
	Status               string    `gorm:"column:status;type:varchar(16);index:idx_orders_buyer_status"`
	OrderDate            time.Time `gorm:"column:order_date"`
	DeliveryAddress      string    `gorm:"column:delivery_address"`
	ExpectedDeliveryDate time.Time `gorm:"column:expected_delivery_date"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Save inserts new orders and updates existing ones.
func (s *Store) Save(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("cannot save nil order")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	db := platformpostgres.Conn(ctx, s.db)
	record := newOrderRecord(order)
	now := s.now().UTC()
	record.UpdatedAt = now

	if record.ID == 0 {
		record.CreatedAt = now
		if err := db.Create(&record).Error; err != nil {
			return nil, err
		}
		order.ID = record.ID
		return record.projection(), nil
	}

	result := db.Model(&orderRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"status":     record.Status,
			"updated_at": record.UpdatedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return s.FindByID(ctx, record.ID)
}

// FindByID loads a single order.
func (s *Store) FindByID(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return s.first(platformpostgres.Conn(ctx, s.db), id)
}

// FindByIDForUpdate loads the order with SELECT ... FOR UPDATE. Outside a transaction the lock is released immediately.
func (s *Store) FindByIDForUpdate(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return s.first(platformpostgres.Conn(ctx, s.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// FindActiveByBuyer lists the buyer's non-cancelled orders, newest first.
func (s *Store) FindActiveByBuyer(ctx context.Context, buyerID int64) ([]*projection.Projection[*domain.Order], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := platformpostgres.Conn(ctx, s.db).
		Where("buyer_id = ? AND status <> ?", buyerID, string(domain.StatusCancelled)).
		Order("order_date DESC").
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*projection.Projection[*domain.Order], 0, len(records))
	for i := range records {
		out = append(out, records[i].projection())
	}
	return out, nil
}

func (s *Store) first(db *gorm.DB, id int64) (*projection.Projection[*domain.Order], error) {
	var record orderRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.projection(), nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order store not configured")
	}
	return nil
}

func newOrderRecord(o *domain.Order) orderRecord {
	return orderRecord{
		ID:                   o.ID,
		BuyerID:              o.BuyerID,
		ListingID:            o.ListingID,
		ListingTitle:         o.ListingTitle,
		UnitPrice:            o.UnitPrice,
		SellerID:             o.SellerID,
		Quantity:             o.Quantity,
		Status:               string(o.Status),
		OrderDate:            o.OrderDate.UTC(),
		DeliveryAddress:      o.DeliveryAddress,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate.UTC(),
	}
}

func (r orderRecord) projection() *projection.Projection[*domain.Order] {
	return projection.New(&domain.Order{
		ID:                   r.ID,
		BuyerID:              r.BuyerID,
		ListingID:            r.ListingID,
		ListingTitle:         r.ListingTitle,
		UnitPrice:            r.UnitPrice,
		SellerID:             r.SellerID,
		Quantity:             r.Quantity,
		Status:               domain.Status(r.Status),
		OrderDate:            r.OrderDate.UTC(),
		DeliveryAddress:      r.DeliveryAddress,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate.UTC(),
	}, r.CreatedAt, r.UpdatedAt)
}
