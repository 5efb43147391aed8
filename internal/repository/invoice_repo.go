package repository

import (
	"context"
	"errors"
	"time"

	"tgwallet/internal/model"

	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *model.TopUpInvoice) error {
	err := r.db.WithContext(ctx).Create(invoice).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateInvoice
	}
	return err
}

func (r *InvoiceRepository) GetByOrderID(ctx context.Context, orderID string) (*model.TopUpInvoice, error) {
	var invoice model.TopUpInvoice
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, fromStatus, toStatus string) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrInvoiceStatusInvalid
	}
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.TopUpInvoice{}).
		Where("order_id = ? AND status = ?", orderID, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceStatusInvalid
	}
	return nil
}

func (r *InvoiceRepository) ListByStatus(ctx context.Context, status string, createdBefore time.Time, limit int) ([]*model.TopUpInvoice, error) {
	var invoices []*model.TopUpInvoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", status, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}
