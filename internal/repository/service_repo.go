package repository

import (
	"context"
	"errors"

	"tgwallet/internal/model"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) List(ctx context.Context) ([]*model.Service, error) {
	var services []*model.Service
	err := r.db.WithContext(ctx).Order("id ASC").Find(&services).Error
	return services, err
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	var service model.Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepository) GetByKind(ctx context.Context, kind model.ServiceKind) (*model.Service, error) {
	var service model.Service
	err := r.db.WithContext(ctx).Where("kind = ?", kind).Order("id ASC").First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepository) Seed(ctx context.Context, services []*model.Service) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range services {
			var count int64
			if err := tx.Model(&model.Service{}).Where("name = ?", s.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			seeded := *s
			seeded.ID = 0
			if err := tx.Create(&seeded).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
