package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LineItem is a purchase line as seen by the engine.
type LineItem struct {
	ProductID        uuid.UUID
	BrandID          *uuid.UUID
	CategoryID       *uuid.UUID
	Quantity         int64
	UnitPrice        decimal.Decimal
	PaymentTermsDays int
}

// OriginalAmount returns quantity * unit price.
func (it LineItem) OriginalAmount() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}

// WarningKind classifies non-fatal conditions raised while evaluating a purchase.
type WarningKind string

const (
	WarningInvalidRule WarningKind = "invalid_rule"
	WarningInvalidItem WarningKind = "invalid_item"
	WarningClamped     WarningKind = "clamped"
)

// Warning describes a recoverable problem surfaced for logging and audit.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	RuleID    *uuid.UUID  `json:"ruleId,omitempty"`
	ItemIndex *int        `json:"itemIndex,omitempty"`
	Message   string      `json:"message"`
}

// MatchResult holds the winning rules for one line item plus any skipped rules.
type MatchResult struct {
	Rules    []Rule
	Warnings []Warning
}

// Matcher selects the rules applicable to a line item.
type Matcher struct {
	Logger zerolog.Logger
}

// Match returns at most one rule per kind, ordered brand, category, volume, payment terms.
// Inactive, out-of-window and misconfigured rules never match; misconfigured rules are reported.
func (m Matcher) Match(rules []Rule, item LineItem, asOf time.Time) MatchResult {
	var res MatchResult
	best := make(map[Kind]Rule, len(kindOrder))
	original := item.OriginalAmount()

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			id := r.ID
			m.Logger.Warn().Err(err).Str("rule_id", r.ID.String()).Str("supplier_id", r.SupplierID.String()).Msg("skipping misconfigured discount rule")
			res.Warnings = append(res.Warnings, Warning{Kind: WarningInvalidRule, RuleID: &id, Message: err.Error()})
			continue
		}
		if !r.Active || !r.ValidAt(asOf) {
			continue
		}
		if !conditionMatches(r.Condition, item) {
			continue
		}
		kind := r.Kind()
		current, ok := best[kind]
		if !ok || better(r, current, original) {
			best[kind] = r
		}
	}

	for _, kind := range kindOrder {
		if r, ok := best[kind]; ok {
			res.Rules = append(res.Rules, r)
		}
	}
	return res
}

func conditionMatches(c Condition, item LineItem) bool {
	switch cond := c.(type) {
	case BrandCondition:
		return item.BrandID != nil && *item.BrandID == cond.BrandID
	case CategoryCondition:
		return item.CategoryID != nil && *item.CategoryID == cond.CategoryID
	case VolumeCondition:
		if cond.MinQuantity != nil && item.Quantity < *cond.MinQuantity {
			return false
		}
		if cond.MinAmount != nil && item.OriginalAmount().LessThan(*cond.MinAmount) {
			return false
		}
		return true
	case PaymentTermsCondition:
		return item.PaymentTermsDays >= cond.Days
	default:
		return false
	}
}

// better reports whether a beats b for the same kind on a line worth original.
func better(a, b Rule, original decimal.Decimal) bool {
	av := ruleAmount(a, original)
	bv := ruleAmount(b, original)
	if c := av.Cmp(bv); c != 0 {
		return c > 0
	}
	if c := a.Percentage.Cmp(b.Percentage); c != 0 {
		return c > 0
	}
	if c := a.fixed().Cmp(b.fixed()); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
