package purchase

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/pricing"
)

// LineResult is the engine output for one item, indexable by its position in the input.
type LineResult struct {
	Index    int                   `json:"index"`
	Discount *discount.Calculation `json:"discount"`
	Pricing  *pricing.Calculation  `json:"pricing"`
}

// Result is the full recomputation for a purchase order.
type Result struct {
	SupplierID string             `json:"supplierId"`
	AsOf       string             `json:"asOf"`
	Items      []LineResult       `json:"items"`
	Totals     Totals             `json:"totals"`
	Warnings   []discount.Warning `json:"warnings,omitempty"`
}

// Engine recomputes discounts and suggested prices. It keeps no state between calls.
type Engine struct {
	Policy pricing.Policy
	Logger zerolog.Logger
}

// NewEngine constructs an engine for the given pricing policy.
func NewEngine(policy pricing.Policy, logger zerolog.Logger) *Engine {
	return &Engine{Policy: policy, Logger: logger}
}

// Compute evaluates every line against the supplier's rules at asOf. Identical inputs give identical results.
func (e *Engine) Compute(supplierID uuid.UUID, items []discount.LineItem, rules []discount.Rule, asOf time.Time) Result {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	log := e.Logger.With().Str("supplier_id", supplierID.String()).Logger()
	active := discount.FilterActive(rules, supplierID, asOf)
	matcher := discount.Matcher{Logger: log}

	res := Result{
		SupplierID: supplierID.String(),
		AsOf:       asOf.Format(time.DateOnly),
		Items:      make([]LineResult, len(items)),
	}
	// Misconfigured rules are reported once per call rather than once per item.
	reported := map[uuid.UUID]struct{}{}

	for i, item := range items {
		line := LineResult{Index: i}
		if item.Quantity <= 0 || !item.UnitPrice.IsPositive() {
			idx := i
			res.Warnings = append(res.Warnings, discount.Warning{
				Kind:      discount.WarningInvalidItem,
				ItemIndex: &idx,
				Message:   fmt.Sprintf("quantity %d and unit price %s must be positive", item.Quantity, item.UnitPrice.String()),
			})
			res.Items[i] = line
			continue
		}

		match := matcher.Match(active, item, asOf)
		for _, w := range match.Warnings {
			if w.RuleID != nil {
				if _, seen := reported[*w.RuleID]; seen {
					continue
				}
				reported[*w.RuleID] = struct{}{}
			}
			res.Warnings = append(res.Warnings, w)
		}

		calc := discount.Compute(item, match.Rules)
		if calc.Clamped {
			idx := i
			log.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Str("original_amount", calc.OriginalAmount.String()).
				Msg("discount exceeds line amount, clamped")
			res.Warnings = append(res.Warnings, discount.Warning{
				Kind:      discount.WarningClamped,
				ItemIndex: &idx,
				Message:   "discount clamped to line amount",
			})
		}
		line.Discount = &calc
		discounted := calc.DiscountedAmount
		line.Pricing = e.Policy.Derive(item.Quantity, item.UnitPrice, &discounted)
		res.Items[i] = line
	}

	res.Totals = Aggregate(res.Items)
	return res
}
