// Package memory keeps the whole wallet in process memory. It backs local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.RWMutex

	users         map[int64]*model.User
	byTelegramID  map[int64]int64
	services      map[int64]*model.Service
	transactions  map[int64]*model.Transaction
	byReference   map[string]int64
	ipChecks      map[int64]*model.IPCheck
	phoneChecks   map[int64]*model.PhoneCheck
	invoices      map[string]*model.TopUpInvoice
	outbox        map[int64]*model.OutboxMessage
	nextUserID    int64
	nextServiceID int64
	nextTxnID     int64
	nextIPID      int64
	nextPhoneID   int64
	nextInvoiceID int64
	nextOutboxID  int64

	now      func() time.Time
	lastTime time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:        make(map[int64]*model.User),
		byTelegramID: make(map[int64]int64),
		services:     make(map[int64]*model.Service),
		transactions: make(map[int64]*model.Transaction),
		byReference:  make(map[string]int64),
		ipChecks:     make(map[int64]*model.IPCheck),
		phoneChecks:  make(map[int64]*model.PhoneCheck),
		invoices:     make(map[string]*model.TopUpInvoice),
		outbox:       make(map[int64]*model.OutboxMessage),
		now:          time.Now,
	}
}

// timestamp is strictly increasing so that newest-first listings never tie. Caller holds mu.
func (s *Store) timestamp() time.Time {
	t := s.now()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Nanosecond)
	}
	s.lastTime = t
	return t
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyTransaction(t *model.Transaction) *model.Transaction {
	c := *t
	return &c
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTelegramID[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(user), nil
}

func (s *Store) insertUser(user *model.User) *model.User {
	s.nextUserID++
	u := *user
	u.ID = s.nextUserID
	u.CreatedAt = s.timestamp()
	s.users[u.ID] = &u
	s.byTelegramID[u.TelegramID] = u.ID
	return copyUser(&u)
}

func (s *Store) GetOrCreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTelegramID[user.TelegramID]; ok {
		return copyUser(s.users[id]), nil
	}
	fresh := *user
	fresh.Balance = decimal.Zero
	return s.insertUser(&fresh), nil
}

func (s *Store) UpdateUserBalance(_ context.Context, id int64, balance decimal.Decimal) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Balance = balance
	return copyUser(u), nil
}

func (s *Store) ListServices(_ context.Context) ([]*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := make([]*model.Service, 0, len(s.services))
	for _, svc := range s.services {
		c := *svc
		services = append(services, &c)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

func (s *Store) GetService(_ context.Context, id int64) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	c := *svc
	return &c, nil
}

func (s *Store) GetServiceByKind(_ context.Context, kind model.ServiceKind) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Service
	for _, svc := range s.services {
		if svc.Kind == kind && (found == nil || svc.ID < found.ID) {
			found = svc
		}
	}
	if found == nil {
		return nil, repository.ErrServiceNotFound
	}
	c := *found
	return &c, nil
}

func (s *Store) SeedServices(_ context.Context, services []*model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]bool, len(s.services))
	for _, svc := range s.services {
		names[svc.Name] = true
	}
	for _, svc := range services {
		if names[svc.Name] {
			continue
		}
		s.nextServiceID++
		c := *svc
		c.ID = s.nextServiceID
		s.services[c.ID] = &c
		names[c.Name] = true
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, txn *model.Transaction) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[txn.UserID]; !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.insertTransaction(txn), nil
}

func (s *Store) insertTransaction(txn *model.Transaction) *model.Transaction {
	s.nextTxnID++
	t := *txn
	t.ID = s.nextTxnID
	t.CreatedAt = s.timestamp()
	s.transactions[t.ID] = &t
	if t.Reference != nil {
		s.byReference[*t.Reference] = t.ID
	}
	return copyTransaction(&t)
}

func (s *Store) ListUserTransactions(_ context.Context, userID int64) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := make([]*model.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			txns = append(txns, copyTransaction(t))
		}
	}
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].ID > txns[j].ID
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return txns, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return copyTransaction(t), nil
}

func (s *Store) RecordPurchase(_ context.Context, rec repository.PurchaseRecord) (*repository.PurchaseResult, error) {
	if rec.Service == nil {
		return nil, repository.ErrServiceNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[rec.UserID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	price := rec.Service.Price
	if u.Balance.LessThan(price) {
		return nil, repository.ErrBalanceNotEnough
	}

	serviceID := rec.Service.ID
	txn := s.insertTransaction(&model.Transaction{
		UserID:      u.ID,
		Type:        model.TransactionTypePurchase,
		Amount:      price,
		Description: rec.Description,
		ServiceID:   &serviceID,
	})
	newBalance := u.Balance.Sub(price)
	result := &repository.PurchaseResult{Transaction: txn}

	if rec.IPCheck != nil {
		s.nextIPID++
		c := *rec.IPCheck
		c.ID = s.nextIPID
		c.UserID = u.ID
		c.TransactionID = txn.ID
		c.CreatedAt = txn.CreatedAt
		s.ipChecks[c.ID] = &c
		out := c
		result.IPCheck = &out
	}
	if rec.PhoneCheck != nil {
		s.nextPhoneID++
		c := *rec.PhoneCheck
		c.ID = s.nextPhoneID
		c.UserID = u.ID
		c.TransactionID = txn.ID
		c.CreatedAt = txn.CreatedAt
		s.phoneChecks[c.ID] = &c
		out := c
		result.PhoneCheck = &out
	}

	after := copyUser(u)
	after.Balance = newBalance
	if err := s.writeEvent(rec.Event, after, txn); err != nil {
		s.rollbackPurchase(txn, result)
		return nil, err
	}

	u.Balance = newBalance
	result.User = copyUser(u)
	return result, nil
}

func (s *Store) rollbackPurchase(txn *model.Transaction, result *repository.PurchaseResult) {
	delete(s.transactions, txn.ID)
	if result.IPCheck != nil {
		delete(s.ipChecks, result.IPCheck.ID)
	}
	if result.PhoneCheck != nil {
		delete(s.phoneChecks, result.PhoneCheck.ID)
	}
}

func (s *Store) CreditTopUp(_ context.Context, rec repository.TopUpRecord) (*repository.TopUpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[rec.UserID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if id, seen := s.byReference[rec.Reference]; seen {
		return &repository.TopUpResult{
			User:        copyUser(u),
			Transaction: copyTransaction(s.transactions[id]),
			Credited:    false,
		}, nil
	}

	reference := rec.Reference
	txn := s.insertTransaction(&model.Transaction{
		UserID:      u.ID,
		Type:        model.TransactionTypeTopUp,
		Amount:      rec.Amount,
		Description: rec.Description,
		Reference:   &reference,
	})

	after := copyUser(u)
	after.Balance = u.Balance.Add(rec.Amount)
	if err := s.writeEvent(rec.Event, after, txn); err != nil {
		delete(s.transactions, txn.ID)
		delete(s.byReference, reference)
		return nil, err
	}

	u.Balance = after.Balance
	if inv, ok := s.invoices[reference]; ok && model.CanTransitionTo(inv.Status, model.InvoiceStatusPaid) {
		inv.Status = model.InvoiceStatusPaid
		inv.UpdatedAt = s.now()
	}

	return &repository.TopUpResult{User: copyUser(u), Transaction: txn, Credited: true}, nil
}

// writeEvent runs under mu.
func (s *Store) writeEvent(build repository.EventBuilder, user *model.User, txn *model.Transaction) error {
	if build == nil {
		return nil
	}
	msg, err := build(user, txn)
	if err != nil || msg == nil {
		return err
	}
	s.nextOutboxID++
	m := *msg
	m.ID = s.nextOutboxID
	if m.Status == "" {
		m.Status = model.OutboxStatusPending
	}
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	s.outbox[m.ID] = &m
	return nil
}
