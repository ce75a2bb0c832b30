package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&userRecord{},
		&listingRecord{},
		&orderRecord{},
		&orderEventRecord{},
		&orderIdempotencyRecord{},
	)
}

// User schema mirrors the users Postgres adapter.
type userRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Username  string    `gorm:"column:username;uniqueIndex"`
	Nickname  string    `gorm:"column:nickname"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role;type:varchar(16);not null;default:USER"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Listing schema mirrors the listings Postgres adapter.
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

// Order schema mirrors the orders Postgres store.
type orderRecord struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BuyerID              int64     `gorm:"column:buyer_id;not null;index:idx_orders_buyer_status"`
	ListingID            int64     `gorm:"column:listing_id;not null;index"`
	ListingTitle         string    `gorm:"column:listing_title"`
	UnitPrice            int64     `gorm:"column:unit_price;not null;check:chk_orders_unit_price,unit_price > 0"`
	SellerID             int64     `gorm:"column:seller_id;not null;index"`
	Quantity             int32     `gorm:"column:quantity;not null;check:chk_orders_quantity,quantity >= 1"`
	Status               string    `gorm:"column:status;type:varchar(16);not null;index:idx_orders_buyer_status"`
	OrderDate            time.Time `gorm:"column:order_date;not null"`
	DeliveryAddress      string    `gorm:"column:delivery_address;not null"`
	ExpectedDeliveryDate time.Time `gorm:"column:expected_delivery_date;not null"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;index"`
}

func (orderRecord) TableName() string { return "orders" }

// Order event schema mirrors the orders Postgres journal.
type orderEventRecord struct {
	ID             string        `gorm:"primaryKey;column:id;size:26"`
	OrderID        int64         `gorm:"column:order_id;not null;index"`
	Type           string        `gorm:"column:type;size:64;not null"`
	PreviousStatus string        `gorm:"column:previous_status;type:varchar(16)"`
	CurrentStatus  string        `gorm:"column:current_status;type:varchar(16)"`
	ActorID        int64         `gorm:"column:actor_id"`
	BuyerID        int64         `gorm:"column:buyer_id"`
	SellerID       int64         `gorm:"column:seller_id"`
	Recipients     pq.Int64Array `gorm:"column:recipients;type:bigint[]"`
	OccurredAt     time.Time     `gorm:"column:occurred_at;index"`
	DispatchedAt   *time.Time    `gorm:"column:dispatched_at"`
}

func (orderEventRecord) TableName() string { return "order_events" }

// Idempotency schema mirrors the orders idempotency store.
type orderIdempotencyRecord struct {
	BuyerID     int64     `gorm:"primaryKey;column:buyer_id"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }
