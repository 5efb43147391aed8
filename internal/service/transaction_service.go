package service

import (
	"context"
	"errors"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"
)

type TransactionService struct {
	store repository.Store
}

func NewTransactionService(store repository.Store) *TransactionService {
	return &TransactionService{store: store}
}

type TransactionDetail struct {
	Transaction *model.Transaction `json:"transaction"`
	Service     *model.Service     `json:"service,omitempty"`
	IPCheck     *model.IPCheck     `json:"ipCheck,omitempty"`
	PhoneCheck  *model.PhoneCheck  `json:"phoneCheck,omitempty"`
}

// ListTransactions returns the user's ledger, newest first. An unknown user has an empty ledger.
func (s *TransactionService) ListTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	txns, err := s.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return txns, nil
}

func (s *TransactionService) GetTransactionDetail(ctx context.Context, id int64) (*TransactionDetail, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	detail := &TransactionDetail{Transaction: txn}
	if txn.Type != model.TransactionTypePurchase {
		return detail, nil
	}

	if txn.ServiceID != nil {
		svc, err := s.store.GetService(ctx, *txn.ServiceID)
		if err != nil && !errors.Is(err, repository.ErrServiceNotFound) {
			return nil, storeError(err)
		}
		detail.Service = svc
	}

	ipCheck, err := s.store.GetIPCheckByTransaction(ctx, txn.ID)
	if err != nil && !errors.Is(err, repository.ErrCheckNotFound) {
		return nil, storeError(err)
	}
	detail.IPCheck = ipCheck

	phoneCheck, err := s.store.GetPhoneCheckByTransaction(ctx, txn.ID)
	if err != nil && !errors.Is(err, repository.ErrCheckNotFound) {
		return nil, storeError(err)
	}
	detail.PhoneCheck = phoneCheck

	return detail, nil
}
