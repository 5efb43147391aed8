package repository

import (
	"context"
	"errors"
	"time"

	"tgwallet/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrCheckNotFound        = errors.New("check not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceStatusInvalid = errors.New("invoice status transition not allowed")
	ErrDuplicateInvoice     = errors.New("invoice already exists")
	ErrBalanceNotEnough     = errors.New("insufficient balance")
)

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	// GetOrCreateUser returns the user for user.TelegramID, inserting it with a zero balance when absent.
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)
	// UpdateUserBalance overwrites the balance without writing a ledger entry. Maintenance only.
	UpdateUserBalance(ctx context.Context, id int64, balance decimal.Decimal) (*model.User, error)
}

type CatalogStore interface {
	ListServices(ctx context.Context) ([]*model.Service, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
	GetServiceByKind(ctx context.Context, kind model.ServiceKind) (*model.Service, error)
	// SeedServices inserts every service whose name is not stored yet.
	SeedServices(ctx context.Context, services []*model.Service) error
}

type LedgerStore interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	// ListUserTransactions is ordered newest first.
	ListUserTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	// RecordPurchase debits the service price and stores the ledger entry and the check record
	// as one unit. The balance is re-checked inside the unit.
	RecordPurchase(ctx context.Context, rec PurchaseRecord) (*PurchaseResult, error)
	// CreditTopUp credits the balance once per reference. A replayed reference returns the
	// existing entry with Credited false.
	CreditTopUp(ctx context.Context, rec TopUpRecord) (*TopUpResult, error)
}

type CheckStore interface {
	CreateIPCheck(ctx context.Context, check *model.IPCheck) (*model.IPCheck, error)
	ListUserIPChecks(ctx context.Context, userID int64) ([]*model.IPCheck, error)
	GetIPCheck(ctx context.Context, id int64) (*model.IPCheck, error)
	GetIPCheckByTransaction(ctx context.Context, transactionID int64) (*model.IPCheck, error)
	CreatePhoneCheck(ctx context.Context, check *model.PhoneCheck) (*model.PhoneCheck, error)
	ListUserPhoneChecks(ctx context.Context, userID int64) ([]*model.PhoneCheck, error)
	GetPhoneCheck(ctx context.Context, id int64) (*model.PhoneCheck, error)
	GetPhoneCheckByTransaction(ctx context.Context, transactionID int64) (*model.PhoneCheck, error)
}

type InvoiceStore interface {
	CreateInvoice(ctx context.Context, invoice *model.TopUpInvoice) (*model.TopUpInvoice, error)
	GetInvoice(ctx context.Context, orderID string) (*model.TopUpInvoice, error)
	UpdateInvoiceStatus(ctx context.Context, orderID, fromStatus, toStatus string) error
	ListInvoicesByStatus(ctx context.Context, status string, createdBefore time.Time, limit int) ([]*model.TopUpInvoice, error)
}

type OutboxStore interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, id int64) error
	IncrementOutboxRetry(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64) error
}

// Store is the persistence contract shared by the in-memory and MySQL backends.
type Store interface {
	UserStore
	CatalogStore
	LedgerStore
	CheckStore
	InvoiceStore
	OutboxStore
}

// EventBuilder produces the outbox message for a committed ledger change. It runs inside the unit.
type EventBuilder func(user *model.User, txn *model.Transaction) (*model.OutboxMessage, error)

type PurchaseRecord struct {
	UserID      int64
	Service     *model.Service
	Description string
	// At most one of IPCheck and PhoneCheck is set; its TransactionID is filled in by the store.
	IPCheck    *model.IPCheck
	PhoneCheck *model.PhoneCheck
	Event      EventBuilder
}

type PurchaseResult struct {
	User        *model.User
	Transaction *model.Transaction
	IPCheck     *model.IPCheck
	PhoneCheck  *model.PhoneCheck
}

type TopUpRecord struct {
	UserID      int64
	Amount      decimal.Decimal
	Reference   string
	Description string
	Event       EventBuilder
}

type TopUpResult struct {
	User        *model.User
	Transaction *model.Transaction
	Credited    bool
}
