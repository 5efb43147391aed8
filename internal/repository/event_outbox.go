package repository

import (
	"context"

	"tgwallet/internal/model"

	"gorm.io/gorm"
)

const defaultOutboxBatch = 100

// EventOutbox keeps ledger events in outbox_message until the relay job hands them
// to the broker. Rows only move forward: PENDING to SENT, or PENDING to FAILED.
type EventOutbox struct {
	db *gorm.DB
}

func NewEventOutbox(db *gorm.DB) *EventOutbox {
	return &EventOutbox{db: db}
}

// Append stores an event on tx, the transaction that changed the balance.
func (o *EventOutbox) Append(ctx context.Context, tx *gorm.DB, event *model.OutboxMessage) error {
	if tx == nil {
		tx = o.db
	}
	event.Status = model.OutboxStatusPending
	event.RetryCount = 0
	return tx.WithContext(ctx).Create(event).Error
}

// Pending returns the oldest undelivered events first.
func (o *EventOutbox) Pending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultOutboxBatch
	}
	var events []*model.OutboxMessage
	err := o.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (o *EventOutbox) Delivered(ctx context.Context, id int64) error {
	return o.pending(ctx, id).Update("status", model.OutboxStatusSent).Error
}

// Retried counts one failed delivery attempt.
func (o *EventOutbox) Retried(ctx context.Context, id int64) error {
	return o.pending(ctx, id).UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}

// Abandoned parks an event the relay will no longer attempt. The retry count is left as is.
func (o *EventOutbox) Abandoned(ctx context.Context, id int64) error {
	return o.pending(ctx, id).Update("status", model.OutboxStatusFailed).Error
}

func (o *EventOutbox) pending(ctx context.Context, id int64) *gorm.DB {
	return o.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ? AND status = ?", id, model.OutboxStatusPending)
}
