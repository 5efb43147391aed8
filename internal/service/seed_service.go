package service

import (
	"context"
	"fmt"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/internal/telegram"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const demoTopUpReference = "TG12345678"

// SeedService fills a fresh store with the catalog and, optionally, a demo wallet that has
// some history to show.
type SeedService struct {
	store   repository.Store
	catalog *CatalogService
	events  *EventFactory
	logger  *zap.Logger
}

func NewSeedService(store repository.Store, catalog *CatalogService, events *EventFactory, logger *zap.Logger) *SeedService {
	return &SeedService{store: store, catalog: catalog, events: events, logger: logger}
}

func (s *SeedService) Seed(ctx context.Context, withDemo bool) error {
	if err := s.catalog.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if !withDemo {
		return nil
	}
	return s.seedDemo(ctx)
}

// seedDemo goes through the regular ledger operations so the balance matches the history.
// Running it twice changes nothing: the demo top-up reference is only credited once.
func (s *SeedService) seedDemo(ctx context.Context) error {
	id := telegram.DemoIdentity
	user, err := s.store.GetOrCreateUser(ctx, &model.User{
		TelegramID: id.ID,
		FirstName:  id.FirstName,
		LastName:   optional(id.LastName),
		Username:   optional(id.Username),
	})
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}

	topUp, err := s.store.CreditTopUp(ctx, repository.TopUpRecord{
		UserID:      user.ID,
		Amount:      decimal.NewFromInt(50),
		Reference:   demoTopUpReference,
		Description: TopUpDescription,
		Event:       s.events.TopUp(),
	})
	if err != nil {
		return fmt.Errorf("seed demo top-up: %w", err)
	}
	if !topUp.Credited {
		return nil
	}

	ipService, err := s.store.GetServiceByKind(ctx, model.ServiceKindIPCheck)
	if err != nil {
		return fmt.Errorf("seed demo ip check: %w", err)
	}
	_, err = s.store.RecordPurchase(ctx, repository.PurchaseRecord{
		UserID:      user.ID,
		Service:     ipService,
		Description: ipService.Name,
		Event:       s.events.Purchase(),
		IPCheck: &model.IPCheck{
			UserID:        user.ID,
			IPAddress:     "8.8.8.8",
			Country:       nonEmpty("США"),
			City:          nonEmpty("Маунтин-Вью"),
			ISP:           nonEmpty("Google LLC"),
			IsSpam:        boolPtr(false),
			IsBlacklisted: boolPtr(false),
			Details:       datatypes.JSON(`{"hostname":"dns.google","org":"Google LLC","timezone":"America/Los_Angeles"}`),
		},
	})
	if err != nil {
		return fmt.Errorf("seed demo ip check: %w", err)
	}

	phoneService, err := s.store.GetServiceByKind(ctx, model.ServiceKindPhoneCheck)
	if err != nil {
		return fmt.Errorf("seed demo phone check: %w", err)
	}
	_, err = s.store.RecordPurchase(ctx, repository.PurchaseRecord{
		UserID:      user.ID,
		Service:     phoneService,
		Description: phoneService.Name,
		Event:       s.events.Purchase(),
		PhoneCheck: &model.PhoneCheck{
			UserID:      user.ID,
			PhoneNumber: "+79123456789",
			Country:     nonEmpty("Россия"),
			Operator:    nonEmpty("МТС"),
			IsActive:    boolPtr(true),
			IsSpam:      boolPtr(false),
			IsVirtual:   boolPtr(false),
			FraudScore:  25,
			Details:     datatypes.JSON(`{"valid":true,"verified":true,"lastActivity":"2025-03-24"}`),
		},
	})
	if err != nil {
		return fmt.Errorf("seed demo phone check: %w", err)
	}

	s.logger.Info("Demo wallet seeded", zap.Int64("user_id", user.ID))
	return nil
}
