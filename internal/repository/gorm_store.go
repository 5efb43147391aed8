package repository

import (
	"context"
	"errors"
	"time"

	"tgwallet/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStore is the MySQL-backed Store. Ledger changes lock the user row with
// SELECT ... FOR UPDATE and commit together with their check and outbox rows.
type GormStore struct {
	db           *gorm.DB
	users        *UserRepository
	services     *ServiceRepository
	transactions *TransactionRepository
	checks       *CheckRepository
	invoices     *InvoiceRepository
	outbox       *EventOutbox
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:           db,
		users:        NewUserRepository(db),
		services:     NewServiceRepository(db),
		transactions: NewTransactionRepository(db),
		checks:       NewCheckRepository(db),
		invoices:     NewInvoiceRepository(db),
		outbox:       NewEventOutbox(db),
	}
}

func (s *GormStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *GormStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

func (s *GormStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	created := *user
	created.ID = 0
	if err := s.users.Create(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	return s.users.GetOrCreate(ctx, user)
}

func (s *GormStore) UpdateUserBalance(ctx context.Context, id int64, balance decimal.Decimal) (*model.User, error) {
	if err := s.users.SetBalance(ctx, id, balance); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *GormStore) ListServices(ctx context.Context) ([]*model.Service, error) {
	return s.services.List(ctx)
}

func (s *GormStore) GetService(ctx context.Context, id int64) (*model.Service, error) {
	return s.services.GetByID(ctx, id)
}

func (s *GormStore) GetServiceByKind(ctx context.Context, kind model.ServiceKind) (*model.Service, error) {
	return s.services.GetByKind(ctx, kind)
}

func (s *GormStore) SeedServices(ctx context.Context, services []*model.Service) error {
	return s.services.Seed(ctx, services)
}

func (s *GormStore) CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	created := *txn
	created.ID = 0
	if err := s.transactions.Create(ctx, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) ListUserTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.transactions.ListByUserID(ctx, userID)
}

func (s *GormStore) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *GormStore) RecordPurchase(ctx context.Context, rec PurchaseRecord) (*PurchaseResult, error) {
	if rec.Service == nil {
		return nil, ErrServiceNotFound
	}
	price := rec.Service.Price
	result := &PurchaseResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.GetByIDForUpdate(ctx, tx, rec.UserID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(price) {
			return ErrBalanceNotEnough
		}
		if err := s.users.Deduct(ctx, tx, user.ID, price); err != nil {
			return err
		}
		user.Balance = user.Balance.Sub(price)

		serviceID := rec.Service.ID
		txn := &model.Transaction{
			UserID:      user.ID,
			Type:        model.TransactionTypePurchase,
			Amount:      price,
			Description: rec.Description,
			ServiceID:   &serviceID,
		}
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}

		if rec.IPCheck != nil {
			check := *rec.IPCheck
			check.UserID = user.ID
			check.TransactionID = txn.ID
			if err := s.checks.CreateIPCheck(ctx, tx, &check); err != nil {
				return err
			}
			result.IPCheck = &check
		}
		if rec.PhoneCheck != nil {
			check := *rec.PhoneCheck
			check.UserID = user.ID
			check.TransactionID = txn.ID
			if err := s.checks.CreatePhoneCheck(ctx, tx, &check); err != nil {
				return err
			}
			result.PhoneCheck = &check
		}

		if err := s.writeEvent(ctx, tx, rec.Event, user, txn); err != nil {
			return err
		}

		result.User = user
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) CreditTopUp(ctx context.Context, rec TopUpRecord) (*TopUpResult, error) {
	var result *TopUpResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.GetByIDForUpdate(ctx, tx, rec.UserID)
		if err != nil {
			return err
		}

		// the user row lock serialises concurrent deliveries of the same reference
		existing, err := s.transactions.GetByReference(ctx, tx, rec.Reference)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &TopUpResult{User: user, Transaction: existing, Credited: false}
			return nil
		}

		if err := s.users.Increase(ctx, tx, user.ID, rec.Amount); err != nil {
			return err
		}
		user.Balance = user.Balance.Add(rec.Amount)

		reference := rec.Reference
		txn := &model.Transaction{
			UserID:      user.ID,
			Type:        model.TransactionTypeTopUp,
			Amount:      rec.Amount,
			Description: rec.Description,
			Reference:   &reference,
		}
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}

		err = s.invoices.UpdateStatus(ctx, tx, rec.Reference, model.InvoiceStatusCreated, model.InvoiceStatusPaid)
		if err != nil && !errors.Is(err, ErrInvoiceStatusInvalid) {
			return err
		}

		if err := s.writeEvent(ctx, tx, rec.Event, user, txn); err != nil {
			return err
		}

		result = &TopUpResult{User: user, Transaction: txn, Credited: true}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, lookupErr := s.transactions.GetByReference(ctx, nil, rec.Reference)
		if lookupErr != nil || existing == nil {
			return nil, err
		}
		user, lookupErr := s.users.GetByID(ctx, rec.UserID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return &TopUpResult{User: user, Transaction: existing, Credited: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) writeEvent(ctx context.Context, tx *gorm.DB, build EventBuilder, user *model.User, txn *model.Transaction) error {
	if build == nil {
		return nil
	}
	msg, err := build(user, txn)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}
	return s.outbox.Append(ctx, tx, msg)
}

func (s *GormStore) CreateIPCheck(ctx context.Context, check *model.IPCheck) (*model.IPCheck, error) {
	created := *check
	created.ID = 0
	if err := s.checks.CreateIPCheck(ctx, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) ListUserIPChecks(ctx context.Context, userID int64) ([]*model.IPCheck, error) {
	return s.checks.ListIPChecks(ctx, userID)
}

func (s *GormStore) GetIPCheck(ctx context.Context, id int64) (*model.IPCheck, error) {
	return s.checks.GetIPCheck(ctx, "id", id)
}

func (s *GormStore) GetIPCheckByTransaction(ctx context.Context, transactionID int64) (*model.IPCheck, error) {
	return s.checks.GetIPCheck(ctx, "transaction_id", transactionID)
}

func (s *GormStore) CreatePhoneCheck(ctx context.Context, check *model.PhoneCheck) (*model.PhoneCheck, error) {
	created := *check
	created.ID = 0
	if err := s.checks.CreatePhoneCheck(ctx, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) ListUserPhoneChecks(ctx context.Context, userID int64) ([]*model.PhoneCheck, error) {
	return s.checks.ListPhoneChecks(ctx, userID)
}

func (s *GormStore) GetPhoneCheck(ctx context.Context, id int64) (*model.PhoneCheck, error) {
	return s.checks.GetPhoneCheck(ctx, "id", id)
}

func (s *GormStore) GetPhoneCheckByTransaction(ctx context.Context, transactionID int64) (*model.PhoneCheck, error) {
	return s.checks.GetPhoneCheck(ctx, "transaction_id", transactionID)
}

func (s *GormStore) CreateInvoice(ctx context.Context, invoice *model.TopUpInvoice) (*model.TopUpInvoice, error) {
	created := *invoice
	created.ID = 0
	if created.Status == "" {
		created.Status = model.InvoiceStatusCreated
	}
	if err := s.invoices.Create(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) GetInvoice(ctx context.Context, orderID string) (*model.TopUpInvoice, error) {
	return s.invoices.GetByOrderID(ctx, orderID)
}

func (s *GormStore) UpdateInvoiceStatus(ctx context.Context, orderID, fromStatus, toStatus string) error {
	return s.invoices.UpdateStatus(ctx, nil, orderID, fromStatus, toStatus)
}

func (s *GormStore) ListInvoicesByStatus(ctx context.Context, status string, createdBefore time.Time, limit int) ([]*model.TopUpInvoice, error) {
	return s.invoices.ListByStatus(ctx, status, createdBefore, limit)
}

func (s *GormStore) ListPendingOutbox(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	return s.outbox.Pending(ctx, limit)
}

func (s *GormStore) MarkOutboxSent(ctx context.Context, id int64) error {
	return s.outbox.Delivered(ctx, id)
}

func (s *GormStore) IncrementOutboxRetry(ctx context.Context, id int64) error {
	return s.outbox.Retried(ctx, id)
}

func (s *GormStore) MarkOutboxFailed(ctx context.Context, id int64) error {
	return s.outbox.Abandoned(ctx, id)
}
