package service

import (
	"context"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"

	"github.com/shopspring/decimal"
)

// DefaultCatalog is seeded at startup.
func DefaultCatalog() []*model.Service {
	return []*model.Service{
		{
			Kind:        model.ServiceKindIPCheck,
			Name:        "Проверка IP адреса",
			Description: "Проверка IP на спам, блэклисты и определение геоданных",
			Price:       decimal.RequireFromString("0.2"),
			Icon:        "public",
			Available:   true,
		},
		{
			Kind:        model.ServiceKindPhoneCheck,
			Name:        "Проверка номера телефона",
			Description: "Проверка номера телефона на мошенничество и наличие в базах спам-номеров",
			Price:       decimal.RequireFromString("0.25"),
			Icon:        "phone",
			Available:   true,
		},
	}
}

type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Seed(ctx context.Context) error {
	return s.store.SeedServices(ctx, DefaultCatalog())
}

func (s *CatalogService) ListServices(ctx context.Context) ([]*model.Service, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return services, nil
}
