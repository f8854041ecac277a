// Package memstore keeps payment batches in process memory. It backs the
// API when STORE_DRIVER=memory and the workflow tests.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

type Store struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*payment.Batch
	order   []uuid.UUID
	now     func() time.Time
}

func New() *Store {
	return &Store{
		batches: make(map[uuid.UUID]*payment.Batch),
		now:     time.Now,
	}
}

func (s *Store) CreateBatch(_ context.Context, b *payment.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	now := s.now()
	b.CreatedAt = now

	for _, l := range b.Lines {
		l.Version = 1
		l.CreatedAt = now
	}

	s.batches[b.ID] = b.Clone()
	s.order = append(s.order, b.ID)

	return nil
}

func (s *Store) GetBatch(_ context.Context, t tenant.Tenant, id uuid.UUID) (*payment.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok || b.Tenant != t {
		return nil, payment.ErrNotFound
	}

	return b.Clone(), nil
}

// ListBatches returns the tenant's batches, most recent transaction first.
func (s *Store) ListBatches(_ context.Context, t tenant.Tenant) ([]*payment.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*payment.Batch

	for i := len(s.order) - 1; i >= 0; i-- {
		if b := s.batches[s.order[i]]; b.Tenant == t {
			out = append(out, b.Clone())
		}
	}

	slices.SortStableFunc(out, func(a, b *payment.Batch) int {
		return b.TransactionDate.Compare(a.TransactionDate)
	})

	return out, nil
}

func (s *Store) DeleteBatch(_ context.Context, t tenant.Tenant, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok || b.Tenant != t {
		return payment.ErrNotFound
	}

	delete(s.batches, id)
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })

	return nil
}

func (s *Store) FindLine(_ context.Context, t tenant.Tenant, lineID uuid.UUID) (*payment.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, _ := s.locate(t, lineID)
	if b == nil {
		return nil, payment.ErrNotFound
	}

	return b.Clone(), nil
}

func (s *Store) FindDuplicateRefs(
	_ context.Context, t tenant.Tenant, refNos, invoiceNos []string, exclude uuid.UUID,
) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]struct{})

	for _, b := range s.batches {
		if b.Tenant != t {
			continue
		}

		for _, l := range b.Lines {
			if l.ID == exclude {
				continue
			}

			if l.RefNo != "" && slices.Contains(refNos, l.RefNo) {
				found["ref no "+l.RefNo] = struct{}{}
			}

			if l.InvoiceNo != "" && slices.Contains(invoiceNos, l.InvoiceNo) {
				found["invoice no "+l.InvoiceNo] = struct{}{}
			}
		}
	}

	dups := make([]string, 0, len(found))
	for k := range found {
		dups = append(dups, k)
	}

	slices.Sort(dups)

	return dups, nil
}

func (s *Store) UpdateLineStatus(_ context.Context, t tenant.Tenant, line *payment.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, stored := s.locate(t, line.ID)
	if stored == nil {
		return payment.ErrNotFound
	}

	if stored.Version != line.Version {
		return payment.ErrConflict
	}

	now := s.now()

	stored.Status = line.Status
	stored.Version++
	stored.UpdatedAt = &now

	line.Version = stored.Version
	line.UpdatedAt = &now

	return nil
}

func (s *Store) UpdateLine(_ context.Context, t tenant.Tenant, line *payment.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, stored := s.locate(t, line.ID)
	if stored == nil {
		return payment.ErrNotFound
	}

	if stored.Version != line.Version {
		return payment.ErrConflict
	}

	now := s.now()

	updated := line.Clone()
	updated.Status = stored.Status
	updated.CreatedAt = stored.CreatedAt
	updated.Version = stored.Version + 1
	updated.UpdatedAt = &now

	i := slices.Index(b.Lines, stored)
	b.Lines[i] = updated

	line.Version = updated.Version
	line.UpdatedAt = &now

	return nil
}

func (s *Store) DeleteLine(_ context.Context, t tenant.Tenant, lineID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, stored := s.locate(t, lineID)
	if stored == nil {
		return payment.ErrNotFound
	}

	b.Lines = slices.DeleteFunc(b.Lines, func(l *payment.Line) bool { return l.ID == lineID })

	return nil
}

// locate returns the stored batch and line, not copies. Callers hold the lock.
func (s *Store) locate(t tenant.Tenant, lineID uuid.UUID) (*payment.Batch, *payment.Line) {
	for _, b := range s.batches {
		if b.Tenant != t {
			continue
		}

		if l := b.Line(lineID); l != nil {
			return b, l
		}
	}

	return nil, nil
}
