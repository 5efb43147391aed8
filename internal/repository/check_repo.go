package repository

import (
	"context"
	"errors"

	"tgwallet/internal/model"

	"gorm.io/gorm"
)

type CheckRepository struct {
	db *gorm.DB
}

func NewCheckRepository(db *gorm.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

func (r *CheckRepository) CreateIPCheck(ctx context.Context, tx *gorm.DB, check *model.IPCheck) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(check).Error
}

func (r *CheckRepository) CreatePhoneCheck(ctx context.Context, tx *gorm.DB, check *model.PhoneCheck) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(check).Error
}

func (r *CheckRepository) ListIPChecks(ctx context.Context, userID int64) ([]*model.IPCheck, error) {
	var checks []*model.IPCheck
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&checks).Error
	return checks, err
}

func (r *CheckRepository) ListPhoneChecks(ctx context.Context, userID int64) ([]*model.PhoneCheck, error) {
	var checks []*model.PhoneCheck
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&checks).Error
	return checks, err
}

func (r *CheckRepository) GetIPCheck(ctx context.Context, column string, value int64) (*model.IPCheck, error) {
	var check model.IPCheck
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckNotFound
		}
		return nil, err
	}
	return &check, nil
}

func (r *CheckRepository) GetPhoneCheck(ctx context.Context, column string, value int64) (*model.PhoneCheck, error) {
	var check model.PhoneCheck
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckNotFound
		}
		return nil, err
	}
	return &check, nil
}
