package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/brix-market/internal/platform/postgres"
)

var _ ports.EventJournal = (*Journal)(nil)

// Journal stores order events in the order_events table.
type Journal struct {
	db *gorm.DB
}

// NewJournal wires a PostgreSQL-backed journal.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

type eventRecord struct {
	ID             string        `gorm:"primaryKey;column:id;size:26"`
	OrderID        int64         `gorm:"column:order_id;index"`
	Type           string        `gorm:"column:type;size:64"`
	PreviousStatus string        `gorm:"column:previous_status;type:varchar(16)"`
	CurrentStatus  string        `gorm:"column:current_status;type:varchar(16)"`
	ActorID        int64         `gorm:"column:actor_id"`
	BuyerID        int64         `gorm:"column:buyer_id"`
	SellerID       int64         `gorm:"column:seller_id"`
	Recipients     pq.Int64Array `gorm:"column:recipients;type:bigint[]"`
	OccurredAt     time.Time     `gorm:"column:occurred_at;index"`
	DispatchedAt   *time.Time    `gorm:"column:dispatched_at"`
}

func (eventRecord) TableName() string { return "order_events" }

// Append inserts the event. Re-appending the same ID is ignored.
func (j *Journal) Append(ctx context.Context, event domain.Event) error {
	if err := j.ensureDB(); err != nil {
		return err
	}
	record := newEventRecord(event)
	return platformpostgres.Conn(ctx, j.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record).Error
}

// ListByOrder returns events ordered by occurrence. ULIDs break ties.
func (j *Journal) ListByOrder(ctx context.Context, orderID int64) ([]domain.Event, error) {
	if err := j.ensureDB(); err != nil {
		return nil, err
	}
	var records []eventRecord
	if err := platformpostgres.Conn(ctx, j.db).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(records))
	for i := range records {
		events = append(events, records[i].toDomain())
	}
	return events, nil
}

// MarkDispatched stamps the first successful delivery time.
func (j *Journal) MarkDispatched(ctx context.Context, eventID string, at time.Time) error {
	if err := j.ensureDB(); err != nil {
		return err
	}
	return platformpostgres.Conn(ctx, j.db).
		Model(&eventRecord{}).
		Where("id = ? AND dispatched_at IS NULL", eventID).
		Update("dispatched_at", at.UTC()).Error
}

func (j *Journal) ensureDB() error {
	if j == nil || j.db == nil {
		return errors.New("postgres order journal not configured")
	}
	return nil
}

func newEventRecord(e domain.Event) eventRecord {
	return eventRecord{
		ID:             e.ID,
		OrderID:        e.OrderID,
		Type:           string(e.Type),
		PreviousStatus: string(e.PreviousStatus),
		CurrentStatus:  string(e.CurrentStatus),
		ActorID:        e.ActorID,
		BuyerID:        e.BuyerID,
		SellerID:       e.SellerID,
		Recipients:     pq.Int64Array(e.Recipients()),
		OccurredAt:     e.OccurredAt.UTC(),
		DispatchedAt:   e.DispatchedAt,
	}
}

func (r eventRecord) toDomain() domain.Event {
	event := domain.Event{
		ID:             r.ID,
		OrderID:        r.OrderID,
		Type:           domain.EventType(r.Type),
		PreviousStatus: domain.Status(r.PreviousStatus),
		CurrentStatus:  domain.Status(r.CurrentStatus),
		ActorID:        r.ActorID,
		BuyerID:        r.BuyerID,
		SellerID:       r.SellerID,
		OccurredAt:     r.OccurredAt.UTC(),
	}
	if r.DispatchedAt != nil {
		at := r.DispatchedAt.UTC()
		event.DispatchedAt = &at
	}
	return event
}
