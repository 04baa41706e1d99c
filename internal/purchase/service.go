package purchase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/cache"
	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/obs"
	"github.com/noah-isme/backend-erp/internal/repo"
	"github.com/noah-isme/backend-erp/internal/resilience"
)

// ErrNoItems is returned when a preview carries no line items.
var ErrNoItems = errors.New("items are required")

// ProductLookup resolves brand and category from the product master.
type ProductLookup interface {
	Attributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]repo.ProductAttributes, error)
}

// ItemInput is a line item as entered on the purchase screen.
type ItemInput struct {
	ProductID        uuid.UUID
	BrandID          *uuid.UUID
	CategoryID       *uuid.UUID
	Quantity         int64
	UnitPrice        decimal.Decimal
	PaymentTermsDays *int
}

// PreviewInput carries everything needed to recompute a purchase order.
type PreviewInput struct {
	SupplierID       uuid.UUID
	PurchaseDate     time.Time
	PaymentTermsDays int
	Items            []ItemInput
}

// Service loads rules and product attributes, runs the engine and memoises results.
type Service struct {
	Rules    discount.Store
	Products ProductLookup
	Engine   *Engine
	Cache    *cache.JSON
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Preview recomputes per-item discounts, suggested prices and order totals.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (Result, error) {
	if s == nil || s.Rules == nil || s.Engine == nil {
		return Result{}, errors.New("purchase service not configured")
	}
	if len(in.Items) == 0 {
		return Result{}, ErrNoItems
	}
	asOf := in.PurchaseDate
	if asOf.IsZero() {
		asOf = s.now()
	}

	rules, err := s.Rules.ListBySupplier(ctx, in.SupplierID)
	if err != nil {
		obs.IncCounter(obs.DiscountPreviewsTotal, failure(err))
		return Result{}, fmt.Errorf("load supplier discounts: %w", err)
	}
	items, err := s.lineItems(ctx, in)
	if err != nil {
		obs.IncCounter(obs.DiscountPreviewsTotal, failure(err))
		return Result{}, err
	}

	key := cache.KeyPreview(in.SupplierID.String(), itemsHash(items, asOf), RulesVersion(rules))
	var cached Result
	if ok, err := s.Cache.Get(ctx, key, &cached); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("read preview cache")
	} else if ok {
		obs.IncCounter(obs.DiscountPreviewCacheTotal, "hit")
		recordWarnings(cached.Warnings)
		obs.IncCounter(obs.DiscountPreviewsTotal, outcome(cached))
		return cached, nil
	}
	obs.IncCounter(obs.DiscountPreviewCacheTotal, "miss")

	start := time.Now()
	res := s.Engine.Compute(in.SupplierID, items, rules, asOf)
	if obs.DiscountPreviewLatency != nil {
		obs.DiscountPreviewLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	recordWarnings(res.Warnings)
	obs.IncCounter(obs.DiscountPreviewsTotal, outcome(res))

	if err := s.Cache.Set(ctx, key, res); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("write preview cache")
	}
	return res, nil
}

// lineItems converts inputs into engine items, filling brand/category from the product master when absent.
func (s *Service) lineItems(ctx context.Context, in PreviewInput) ([]discount.LineItem, error) {
	var missing []uuid.UUID
	for _, it := range in.Items {
		if it.ProductID != uuid.Nil && (it.BrandID == nil || it.CategoryID == nil) {
			missing = append(missing, it.ProductID)
		}
	}
	attrs := map[uuid.UUID]repo.ProductAttributes{}
	if len(missing) > 0 && s.Products != nil {
		found, err := s.Products.Attributes(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve product attributes: %w", err)
		}
		attrs = found
	}

	out := make([]discount.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		item := discount.LineItem{
			ProductID:        it.ProductID,
			BrandID:          it.BrandID,
			CategoryID:       it.CategoryID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			PaymentTermsDays: in.PaymentTermsDays,
		}
		if it.PaymentTermsDays != nil {
			item.PaymentTermsDays = *it.PaymentTermsDays
		}
		if a, ok := attrs[it.ProductID]; ok {
			if item.BrandID == nil {
				item.BrandID = a.BrandID
			}
			if item.CategoryID == nil {
				item.CategoryID = a.CategoryID
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RulesVersion fingerprints a rule set by id and last update so edits invalidate cached previews.
func RulesVersion(rules []discount.Rule) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, r.ID.String()+"@"+strconv.FormatInt(r.UpdatedAt.UnixNano(), 10))
	}
	sort.Strings(parts)
	return common.Fingerprint(parts...)[:16]
}

func itemsHash(items []discount.LineItem, asOf time.Time) string {
	var b strings.Builder
	b.WriteString(asOf.Format(time.DateOnly))
	for _, it := range items {
		b.WriteString("|")
		b.WriteString(it.ProductID.String())
		b.WriteString(",")
		b.WriteString(optionalID(it.BrandID))
		b.WriteString(",")
		b.WriteString(optionalID(it.CategoryID))
		b.WriteString(",")
		b.WriteString(strconv.FormatInt(it.Quantity, 10))
		b.WriteString(",")
		b.WriteString(it.UnitPrice.String())
		b.WriteString(",")
		b.WriteString(strconv.Itoa(it.PaymentTermsDays))
	}
	return common.Fingerprint(b.String())[:16]
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func recordWarnings(warnings []discount.Warning) {
	for _, w := range warnings {
		switch w.Kind {
		case discount.WarningInvalidRule:
			obs.IncCounter(obs.DiscountRulesSkippedTotal, "invalid_config")
		case discount.WarningClamped:
			if obs.DiscountClampedTotal != nil {
				obs.DiscountClampedTotal.Inc()
			}
		}
	}
}

func failure(err error) string {
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return "unavailable"
	}
	return "error"
}

func outcome(res Result) string {
	if res.Totals.HasDiscount() {
		return "discounted"
	}
	return "no_discount"
}
