package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/brix-market/internal/domains/listings/domain"
	"github.com/Apurer/brix-market/internal/domains/listings/ports"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
)

var _ ports.Catalog = (*Catalog)(nil)

// Catalog reads listings from PostgreSQL. The catalog service owns writes in production.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

type listingRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Title     string    `gorm:"column:title"`
	Price     int64     `gorm:"column:price"`
	Quantity  int32     `gorm:"column:quantity"`
	SellerID  int64     `gorm:"column:seller_id;index"`
	Grade     string    `gorm:"column:grade;type:varchar(16)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (listingRecord) TableName() string { return "listings" }

// GetListing loads a listing by id.
func (c *Catalog) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var record listingRecord
	if err := platformpostgres.Conn(ctx, c.db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Put upserts a listing; used for seeding local databases.
func (c *Catalog) Put(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	record := listingRecord{
		ID:       listing.ID,
		Title:    listing.Title,
		Price:    listing.Price,
		Quantity: listing.Quantity,
		SellerID: listing.SellerID,
		Grade:    string(listing.Grade),
	}
	if err := platformpostgres.Conn(ctx, c.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "price", "quantity", "seller_id", "grade", "updated_at"}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return c.GetListing(ctx, record.ID)
}

func (c *Catalog) ensureDB() error {
	if c == nil || c.db == nil {
		return errors.New("postgres listing catalog not configured")
	}
	return nil
}

func (r listingRecord) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:       r.ID,
		Title:    r.Title,
		Price:    r.Price,
		Quantity: r.Quantity,
		SellerID: r.SellerID,
		Grade:    domain.Grade(r.Grade),
	}
}
