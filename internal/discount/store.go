package discount

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store loads the discount rules configured for a supplier.
type Store interface {
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]Rule, error)
}

// FilterActive returns the supplier's rules that are active and valid at asOf.
// A zero asOf is treated as now.
func FilterActive(rules []Rule, supplierID uuid.UUID, asOf time.Time) []Rule {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.SupplierID != supplierID || !r.Active {
			continue
		}
		if !r.ValidAt(asOf) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ListActiveRules fetches the supplier's rules from the store and filters them to those usable at asOf.
func ListActiveRules(ctx context.Context, store Store, supplierID uuid.UUID, asOf time.Time) ([]Rule, error) {
	rules, err := store.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return FilterActive(rules, supplierID, asOf), nil
}

// MemoryStore keeps rules in process. Used by tests and local tooling.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]Rule
}

// NewMemoryStore seeds a store with the given rules.
func NewMemoryStore(rules ...Rule) *MemoryStore {
	s := &MemoryStore{rules: make(map[uuid.UUID]Rule, len(rules))}
	for _, r := range rules {
		s.rules[r.ID] = r
	}
	return s
}

// Put inserts or replaces a rule.
func (s *MemoryStore) Put(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rules == nil {
		s.rules = map[uuid.UUID]Rule{}
	}
	s.rules[r.ID] = r
}

// Delete removes a rule owned by the supplier.
func (s *MemoryStore) Delete(supplierID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok || r.SupplierID != supplierID {
		return ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

// ListBySupplier implements Store. Rules are returned oldest first.
func (s *MemoryStore) ListBySupplier(_ context.Context, supplierID uuid.UUID) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0)
	for _, r := range s.rules {
		if r.SupplierID == supplierID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
