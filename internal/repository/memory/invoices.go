package memory

import (
	"context"
	"sort"
	"time"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"
)

func (s *Store) CreateInvoice(_ context.Context, invoice *model.TopUpInvoice) (*model.TopUpInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoice.OrderID]; exists {
		return nil, repository.ErrDuplicateInvoice
	}
	s.nextInvoiceID++
	inv := *invoice
	inv.ID = s.nextInvoiceID
	if inv.Status == "" {
		inv.Status = model.InvoiceStatusCreated
	}
	inv.CreatedAt = s.timestamp()
	inv.UpdatedAt = inv.CreatedAt
	s.invoices[inv.OrderID] = &inv
	out := inv
	return &out, nil
}

func (s *Store) GetInvoice(_ context.Context, orderID string) (*model.TopUpInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[orderID]
	if !ok {
		return nil, repository.ErrInvoiceNotFound
	}
	out := *inv
	return &out, nil
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, orderID, fromStatus, toStatus string) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return repository.ErrInvoiceStatusInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[orderID]
	if !ok || inv.Status != fromStatus {
		return repository.ErrInvoiceStatusInvalid
	}
	inv.Status = toStatus
	inv.UpdatedAt = s.now()
	return nil
}

func (s *Store) ListInvoicesByStatus(_ context.Context, status string, createdBefore time.Time, limit int) ([]*model.TopUpInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]*model.TopUpInvoice, 0)
	for _, inv := range s.invoices {
		if inv.Status == status && inv.CreatedAt.Before(createdBefore) {
			out := *inv
			invoices = append(invoices, &out)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	if limit > 0 && len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return invoices, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]*model.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*model.OutboxMessage, 0)
	for _, m := range s.outbox {
		if m.Status == model.OutboxStatusPending {
			out := *m
			messages = append(messages, &out)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.outbox[id]; ok && m.Status == model.OutboxStatusPending {
		m.Status = model.OutboxStatusSent
		m.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) IncrementOutboxRetry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.outbox[id]; ok && m.Status == model.OutboxStatusPending {
		m.RetryCount++
		m.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.outbox[id]; ok && m.Status == model.OutboxStatusPending {
		m.Status = model.OutboxStatusFailed
		m.UpdatedAt = s.now()
	}
	return nil
}
