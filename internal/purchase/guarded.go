package purchase

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/repo"
	"github.com/noah-isme/backend-erp/internal/resilience"
)

// GuardedRules reads supplier rules through a circuit breaker so an unhealthy
// database fails previews fast instead of stalling every request.
type GuardedRules struct {
	Store discount.Store
	Guard *resilience.Guard
}

// ListBySupplier implements discount.Store.
func (g GuardedRules) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]discount.Rule, error) {
	return resilience.Call(ctx, g.Guard, func(ctx context.Context) ([]discount.Rule, error) {
		return g.Store.ListBySupplier(ctx, supplierID)
	})
}

// GuardedProducts resolves product attributes through a circuit breaker.
type GuardedProducts struct {
	Lookup ProductLookup
	Guard  *resilience.Guard
}

// Attributes implements ProductLookup.
func (g GuardedProducts) Attributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]repo.ProductAttributes, error) {
	return resilience.Call(ctx, g.Guard, func(ctx context.Context) (map[uuid.UUID]repo.ProductAttributes, error) {
		return g.Lookup.Attributes(ctx, ids)
	})
}
