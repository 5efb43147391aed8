package service

import (
	"context"
	"errors"

	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/internal/telegram"

	"go.uber.org/zap"
)

type AccountService struct {
	store    repository.Store
	verifier *telegram.Verifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewAccountService(store repository.Store, verifier *telegram.Verifier, m *metrics.Metrics, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, verifier: verifier, metrics: m, logger: logger}
}

type AuthRequest struct {
	InitData string `json:"initData"`
}

// Authenticate verifies the launch payload and returns the wallet user, creating it on first sight.
func (s *AccountService) Authenticate(ctx context.Context, initData string) (*model.User, error) {
	identity, err := s.verifier.Identity(initData)
	if err != nil {
		reason := "signature"
		switch {
		case errors.Is(err, telegram.ErrInvalidIdentity):
			reason = "identity"
		case errors.Is(err, telegram.ErrExpired):
			reason = "expired"
		}
		s.metrics.RecordAuthFailure(reason)
		s.logger.Warn("Rejected launch data", zap.String("reason", reason), zap.Error(err))
		if reason == "identity" {
			return nil, NewServiceError(ErrCodeValidation, ErrInvalidUserData)
		}
		return nil, NewServiceError(ErrCodeInvalidSignature, ErrInvalidSignature)
	}

	user, err := s.store.GetOrCreateUser(ctx, &model.User{
		TelegramID: identity.ID,
		FirstName:  identity.FirstName,
		LastName:   optional(identity.LastName),
		Username:   optional(identity.Username),
		PhotoURL:   optional(identity.PhotoURL),
	})
	if err != nil {
		s.logger.Error("Failed to load user", zap.Int64("telegram_id", identity.ID), zap.Error(err))
		return nil, storeError(err)
	}
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func (s *AccountService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
