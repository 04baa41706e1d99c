package discount

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names the applicability dimension of a supplier discount rule.
type Kind string

const (
	KindBrand        Kind = "brand"
	KindCategory     Kind = "category"
	KindVolume       Kind = "volume"
	KindPaymentTerms Kind = "payment_terms"
)

// kindOrder fixes the presentation order of matched rules.
var kindOrder = []Kind{KindBrand, KindCategory, KindVolume, KindPaymentTerms}

// ParseKind converts a stored discount_type value into a Kind.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindBrand, KindCategory, KindVolume, KindPaymentTerms:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown discount type %q", ErrInvalidRule, value)
	}
}

// Label returns the human readable label used by supplier screens.
func (k Kind) Label() string {
	switch k {
	case KindBrand:
		return "Brand-wise"
	case KindCategory:
		return "Category-wise"
	case KindVolume:
		return "Volume-based"
	case KindPaymentTerms:
		return "Payment Terms"
	default:
		return string(k)
	}
}

var (
	// ErrInvalidRule indicates a rule whose configuration cannot be evaluated.
	ErrInvalidRule = errors.New("invalid discount rule")
	// ErrRuleNotFound is returned by stores when the rule does not exist for the supplier.
	ErrRuleNotFound = errors.New("discount rule not found")
)

// Condition is the applicability predicate of a rule. Exactly one variant is attached to every rule.
type Condition interface {
	Kind() Kind
	validate() error
}

// BrandCondition applies to line items of a single brand.
type BrandCondition struct {
	BrandID uuid.UUID
}

// CategoryCondition applies to line items of a single category.
type CategoryCondition struct {
	CategoryID uuid.UUID
}

// VolumeCondition applies once the line meets every populated threshold.
type VolumeCondition struct {
	MinQuantity *int64
	MinAmount   *decimal.Decimal
}

// PaymentTermsCondition applies when the purchase is booked on at least Days of credit.
type PaymentTermsCondition struct {
	Days int
}

func (BrandCondition) Kind() Kind        { return KindBrand }
func (CategoryCondition) Kind() Kind     { return KindCategory }
func (VolumeCondition) Kind() Kind       { return KindVolume }
func (PaymentTermsCondition) Kind() Kind { return KindPaymentTerms }

func (c BrandCondition) validate() error {
	if c.BrandID == uuid.Nil {
		return fmt.Errorf("%w: brand rule without brand", ErrInvalidRule)
	}
	return nil
}

func (c CategoryCondition) validate() error {
	if c.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category rule without category", ErrInvalidRule)
	}
	return nil
}

func (c VolumeCondition) validate() error {
	if c.MinQuantity == nil && c.MinAmount == nil {
		return fmt.Errorf("%w: volume rule without thresholds", ErrInvalidRule)
	}
	if c.MinQuantity != nil && *c.MinQuantity < 0 {
		return fmt.Errorf("%w: negative minimum quantity", ErrInvalidRule)
	}
	if c.MinAmount != nil && c.MinAmount.IsNegative() {
		return fmt.Errorf("%w: negative minimum amount", ErrInvalidRule)
	}
	return nil
}

func (c PaymentTermsCondition) validate() error {
	if c.Days < 0 {
		return fmt.Errorf("%w: negative payment terms", ErrInvalidRule)
	}
	return nil
}

// Rule is a supplier discount rule as evaluated by the engine.
type Rule struct {
	ID          uuid.UUID
	SupplierID  uuid.UUID
	Condition   Condition
	Percentage  decimal.Decimal
	FixedAmount *decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  *time.Time
	Active      bool
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Kind reports the rule's applicability dimension, or "" when no condition is attached.
func (r Rule) Kind() Kind {
	if r.Condition == nil {
		return ""
	}
	return r.Condition.Kind()
}

// Validate checks the rule can be evaluated.
func (r Rule) Validate() error {
	if r.Condition == nil {
		return fmt.Errorf("%w: missing condition", ErrInvalidRule)
	}
	if r.Percentage.IsNegative() {
		return fmt.Errorf("%w: negative percentage", ErrInvalidRule)
	}
	if r.FixedAmount != nil && r.FixedAmount.IsNegative() {
		return fmt.Errorf("%w: negative fixed amount", ErrInvalidRule)
	}
	if r.ValidUntil != nil && dayOf(*r.ValidUntil).Before(dayOf(r.ValidFrom)) {
		return fmt.Errorf("%w: valid_until before valid_from", ErrInvalidRule)
	}
	return r.Condition.validate()
}

// ValidAt reports whether asOf falls inside the inclusive validity window. Dates compare by calendar day.
func (r Rule) ValidAt(asOf time.Time) bool {
	day := dayOf(asOf)
	if !r.ValidFrom.IsZero() && day.Before(dayOf(r.ValidFrom)) {
		return false
	}
	if r.ValidUntil != nil && day.After(dayOf(*r.ValidUntil)) {
		return false
	}
	return true
}

func (r Rule) fixed() decimal.Decimal {
	if r.FixedAmount == nil {
		return decimal.Zero
	}
	return *r.FixedAmount
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Record mirrors a supplier_discounts row with nullable columns.
type Record struct {
	ID                 uuid.UUID
	SupplierID         uuid.UUID
	DiscountType       string
	BrandID            *uuid.UUID
	CategoryID         *uuid.UUID
	MinQuantity        *int64
	MinAmount          *decimal.Decimal
	PaymentTermsDays   *int
	DiscountPercentage decimal.Decimal
	DiscountAmount     *decimal.Decimal
	ValidFrom          time.Time
	ValidUntil         *time.Time
	IsActive           bool
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RuleFromRecord converts a persisted row into a Rule, rejecting rows whose columns contradict the type.
func RuleFromRecord(rec Record) (Rule, error) {
	kind, err := ParseKind(rec.DiscountType)
	if err != nil {
		return Rule{}, err
	}
	rule := Rule{
		ID:          rec.ID,
		SupplierID:  rec.SupplierID,
		Percentage:  rec.DiscountPercentage,
		FixedAmount: rec.DiscountAmount,
		ValidFrom:   rec.ValidFrom,
		ValidUntil:  rec.ValidUntil,
		Active:      rec.IsActive,
		Notes:       rec.Notes,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	brandSet := rec.BrandID != nil
	categorySet := rec.CategoryID != nil
	volumeSet := rec.MinQuantity != nil || rec.MinAmount != nil
	termsSet := rec.PaymentTermsDays != nil

	switch kind {
	case KindBrand:
		if !brandSet || categorySet || volumeSet || termsSet {
			return Rule{}, fmt.Errorf("%w: brand rule must only set brand_id", ErrInvalidRule)
		}
		rule.Condition = BrandCondition{BrandID: *rec.BrandID}
	case KindCategory:
		if !categorySet || brandSet || volumeSet || termsSet {
			return Rule{}, fmt.Errorf("%w: category rule must only set category_id", ErrInvalidRule)
		}
		rule.Condition = CategoryCondition{CategoryID: *rec.CategoryID}
	case KindVolume:
		if !volumeSet || brandSet || categorySet || termsSet {
			return Rule{}, fmt.Errorf("%w: volume rule must only set min_quantity/min_amount", ErrInvalidRule)
		}
		rule.Condition = VolumeCondition{MinQuantity: rec.MinQuantity, MinAmount: rec.MinAmount}
	case KindPaymentTerms:
		if !termsSet || brandSet || categorySet || volumeSet {
			return Rule{}, fmt.Errorf("%w: payment terms rule must only set payment_terms_days", ErrInvalidRule)
		}
		rule.Condition = PaymentTermsCondition{Days: *rec.PaymentTermsDays}
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// ToRecord flattens a Rule into its nullable column form.
func ToRecord(r Rule) Record {
	rec := Record{
		ID:                 r.ID,
		SupplierID:         r.SupplierID,
		DiscountType:       string(r.Kind()),
		DiscountPercentage: r.Percentage,
		DiscountAmount:     r.FixedAmount,
		ValidFrom:          r.ValidFrom,
		ValidUntil:         r.ValidUntil,
		IsActive:           r.Active,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	switch c := r.Condition.(type) {
	case BrandCondition:
		id := c.BrandID
		rec.BrandID = &id
	case CategoryCondition:
		id := c.CategoryID
		rec.CategoryID = &id
	case VolumeCondition:
		rec.MinQuantity = c.MinQuantity
		rec.MinAmount = c.MinAmount
	case PaymentTermsCondition:
		days := c.Days
		rec.PaymentTermsDays = &days
	}
	return rec
}
