package memory

import (
	"context"
	"sort"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"
)

func (s *Store) CreateIPCheck(_ context.Context, check *model.IPCheck) (*model.IPCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextIPID++
	c := *check
	c.ID = s.nextIPID
	c.CreatedAt = s.timestamp()
	s.ipChecks[c.ID] = &c
	out := c
	return &out, nil
}

func (s *Store) ListUserIPChecks(_ context.Context, userID int64) ([]*model.IPCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make([]*model.IPCheck, 0)
	for _, c := range s.ipChecks {
		if c.UserID == userID {
			out := *c
			checks = append(checks, &out)
		}
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID > checks[j].ID })
	return checks, nil
}

func (s *Store) GetIPCheck(_ context.Context, id int64) (*model.IPCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.ipChecks[id]
	if !ok {
		return nil, repository.ErrCheckNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) GetIPCheckByTransaction(_ context.Context, transactionID int64) (*model.IPCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.ipChecks {
		if c.TransactionID == transactionID {
			out := *c
			return &out, nil
		}
	}
	return nil, repository.ErrCheckNotFound
}

func (s *Store) CreatePhoneCheck(_ context.Context, check *model.PhoneCheck) (*model.PhoneCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPhoneID++
	c := *check
	c.ID = s.nextPhoneID
	c.CreatedAt = s.timestamp()
	s.phoneChecks[c.ID] = &c
	out := c
	return &out, nil
}

func (s *Store) ListUserPhoneChecks(_ context.Context, userID int64) ([]*model.PhoneCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make([]*model.PhoneCheck, 0)
	for _, c := range s.phoneChecks {
		if c.UserID == userID {
			out := *c
			checks = append(checks, &out)
		}
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID > checks[j].ID })
	return checks, nil
}

func (s *Store) GetPhoneCheck(_ context.Context, id int64) (*model.PhoneCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.phoneChecks[id]
	if !ok {
		return nil, repository.ErrCheckNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) GetPhoneCheckByTransaction(_ context.Context, transactionID int64) (*model.PhoneCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.phoneChecks {
		if c.TransactionID == transactionID {
			out := *c
			return &out, nil
		}
	}
	return nil, repository.ErrCheckNotFound
}
