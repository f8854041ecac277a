// Package memstore keeps recipients in process memory for STORE_DRIVER=memory.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

type Store struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]recipient.Recipient
	now  func() time.Time
}

func New() *Store {
	return &Store{byID: make(map[uuid.UUID]recipient.Recipient), now: time.Now}
}

func (s *Store) Create(_ context.Context, r *recipient.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(r)
}

func (s *Store) CreateMany(_ context.Context, rs []*recipient.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]uuid.UUID, 0, len(rs))

	for _, r := range rs {
		if err := s.insert(r); err != nil {
			for _, id := range inserted {
				delete(s.byID, id)
			}

			return err
		}

		inserted = append(inserted, r.ID)
	}

	return nil
}

func (s *Store) insert(r *recipient.Recipient) error {
	if err := s.checkUnique(*r); err != nil {
		return err
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	r.CreatedAt = s.now()
	s.byID[r.ID] = *r

	return nil
}

// checkUnique mirrors the unique indexes of the SQL schema.
func (s *Store) checkUnique(r recipient.Recipient) error {
	for _, other := range s.byID {
		if other.ID == r.ID || other.Tenant != r.Tenant {
			continue
		}

		switch {
		case strings.EqualFold(other.Email, r.Email):
			return &recipient.DuplicateError{Field: recipient.FieldEmail}
		case other.Phone == r.Phone:
			return &recipient.DuplicateError{Field: recipient.FieldPhone}
		case r.AccountNumber != "" && other.AccountNumber == r.AccountNumber:
			return &recipient.DuplicateError{Field: recipient.FieldAccountNumber}
		}
	}

	return nil
}

func (s *Store) Get(_ context.Context, t tenant.Tenant, id uuid.UUID) (*recipient.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok || r.Tenant != t {
		return nil, recipient.ErrNotFound
	}

	return &r, nil
}

func (s *Store) List(_ context.Context, t tenant.Tenant) ([]*recipient.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filter(func(r recipient.Recipient) bool { return r.Tenant == t })

	slices.SortFunc(out, func(a, b *recipient.Recipient) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (s *Store) SearchByName(_ context.Context, t tenant.Tenant, prefix string, limit int) ([]*recipient.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.ToLower(prefix)

	out := s.filter(func(r recipient.Recipient) bool {
		return r.Tenant == t && strings.HasPrefix(strings.ToLower(r.Name), prefix)
	})

	slices.SortFunc(out, func(a, b *recipient.Recipient) int { return strings.Compare(a.Name, b.Name) })

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *Store) Update(_ context.Context, r *recipient.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[r.ID]
	if !ok || stored.Tenant != r.Tenant {
		return recipient.ErrNotFound
	}

	if err := s.checkUnique(*r); err != nil {
		return err
	}

	now := s.now()
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = &now
	s.byID[r.ID] = *r

	return nil
}

func (s *Store) Delete(_ context.Context, t tenant.Tenant, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok || r.Tenant != t {
		return recipient.ErrNotFound
	}

	delete(s.byID, id)

	return nil
}

func (s *Store) filter(keep func(recipient.Recipient) bool) []*recipient.Recipient {
	out := []*recipient.Recipient{}

	for _, r := range s.byID {
		if keep(r) {
			out = append(out, &r)
		}
	}

	return out
}
