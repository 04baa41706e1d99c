package supplier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/obs"
	"github.com/noah-isme/backend-erp/internal/repo"
)

// Repository captures the persistence operations used by the discount handlers.
type Repository interface {
	ListRecords(ctx context.Context, supplierID uuid.UUID) ([]discount.Record, error)
	Get(ctx context.Context, supplierID, id uuid.UUID) (discount.Record, error)
	Create(ctx context.Context, rule discount.Rule) (discount.Record, error)
	Update(ctx context.Context, rule discount.Rule) (discount.Record, error)
	SetActive(ctx context.Context, supplierID, id uuid.UUID, active bool) (discount.Record, error)
	Delete(ctx context.Context, supplierID, id uuid.UUID) error
}

// Handler exposes supplier discount rule management endpoints.
type Handler struct {
	Repo   Repository
	Logger zerolog.Logger
	Now    func() time.Time
}

type discountPayload struct {
	DiscountType       string           `json:"discountType" validate:"required,oneof=brand category volume payment_terms"`
	BrandID            *string          `json:"brandId" validate:"omitempty,uuid"`
	CategoryID         *string          `json:"categoryId" validate:"omitempty,uuid"`
	MinQuantity        *int64           `json:"minQuantity" validate:"omitempty,gte=0"`
	MinAmount          *decimal.Decimal `json:"minAmount"`
	PaymentTermsDays   *int             `json:"paymentTermsDays" validate:"omitempty,gte=0"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage" validate:"required"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount"`
	ValidFrom          string           `json:"validFrom" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil         string           `json:"validUntil" validate:"omitempty,datetime=2006-01-02"`
	IsActive           *bool            `json:"isActive"`
	Notes              string           `json:"notes" validate:"max=1000"`
}

type activePayload struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ruleView is the API representation of a stored rule.
type ruleView struct {
	ID                 string           `json:"id"`
	SupplierID         string           `json:"supplierId"`
	DiscountType       string           `json:"discountType"`
	Label              string           `json:"label"`
	BrandID            *string          `json:"brandId"`
	CategoryID         *string          `json:"categoryId"`
	MinQuantity        *int64           `json:"minQuantity"`
	MinAmount          *decimal.Decimal `json:"minAmount"`
	PaymentTermsDays   *int             `json:"paymentTermsDays"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount"`
	ValidFrom          string           `json:"validFrom"`
	ValidUntil         *string          `json:"validUntil"`
	IsActive           bool             `json:"isActive"`
	Notes              string           `json:"notes"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// List returns the supplier's rules. With ?active=true only rules usable at ?asOf (default today) are returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	records, err := h.Repo.ListRecords(r.Context(), supplierID)
	if err != nil {
		h.Logger.Error().Err(err).Str("supplier_id", supplierID.String()).Msg("list supplier discounts")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discounts", nil)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("active"), "true") {
		asOf := h.now()
		if raw := strings.TrimSpace(r.URL.Query().Get("asOf")); raw != "" {
			parsed, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "asOf must be YYYY-MM-DD", nil)
				return
			}
			asOf = parsed
		}
		records = activeRecords(records, supplierID, asOf)
	}
	views := make([]ruleView, 0, len(records))
	for _, rec := range records {
		views = append(views, toView(rec))
	}
	common.Data(w, http.StatusOK, views)
}

// Get returns a single rule.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	rec, err := h.Repo.Get(r.Context(), supplierID, id)
	if err != nil {
		h.writeRepoError(w, err, "get")
		return
	}
	common.Data(w, http.StatusOK, toView(rec))
}

// Create inserts a new rule for the supplier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	var payload discountPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	rule, err := buildRule(supplierID, uuid.Nil, payload, h.now())
	if err != nil {
		common.WriteError(w, common.BadRequest(err.Error(), err))
		return
	}
	rec, err := h.Repo.Create(r.Context(), rule)
	if err != nil {
		h.writeRepoError(w, err, "create")
		return
	}
	obs.IncCounter(obs.SupplierDiscountWritesTotal, "create", "ok")
	h.Logger.Info().Str("supplier_id", supplierID.String()).Str("rule_id", rec.ID.String()).Str("type", rec.DiscountType).Msg("supplier discount created")
	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+rec.ID.String())
	common.Data(w, http.StatusCreated, toView(rec))
}

// Update replaces an existing rule.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	var payload discountPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	// a zero start keeps the stored valid_from
	rule, err := buildRule(supplierID, id, payload, time.Time{})
	if err != nil {
		common.WriteError(w, common.BadRequest(err.Error(), err))
		return
	}
	rec, err := h.Repo.Update(r.Context(), rule)
	if err != nil {
		h.writeRepoError(w, err, "update")
		return
	}
	obs.IncCounter(obs.SupplierDiscountWritesTotal, "update", "ok")
	common.Data(w, http.StatusOK, toView(rec))
}

// SetActive toggles a rule on or off without touching its configuration.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	var payload activePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Repo.SetActive(r.Context(), supplierID, id, *payload.IsActive)
	if err != nil {
		h.writeRepoError(w, err, "set_active")
		return
	}
	obs.IncCounter(obs.SupplierDiscountWritesTotal, "set_active", "ok")
	common.Data(w, http.StatusOK, toView(rec))
}

// Delete removes a rule.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), supplierID, id); err != nil {
		h.writeRepoError(w, err, "delete")
		return
	}
	obs.IncCounter(obs.SupplierDiscountWritesTotal, "delete", "ok")
	h.Logger.Info().Str("supplier_id", supplierID.String()).Str("rule_id", id.String()).Msg("supplier discount deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) supplierID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount repository not configured", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "supplierID")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid supplier id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func ruleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, discount.ErrRuleNotFound):
		obs.IncCounter(obs.SupplierDiscountWritesTotal, op, "not_found")
		common.WriteError(w, common.NotFound("discount not found", err))
	case errors.Is(err, repo.ErrReferenceMissing):
		obs.IncCounter(obs.SupplierDiscountWritesTotal, op, "bad_reference")
		common.WriteError(w, common.BadRequest("supplier, brand or category does not exist", err))
	case errors.Is(err, discount.ErrInvalidRule):
		obs.IncCounter(obs.SupplierDiscountWritesTotal, op, "invalid")
		common.WriteError(w, common.BadRequest("discount window is invalid", err))
	case errors.Is(err, repo.ErrConflict):
		obs.IncCounter(obs.SupplierDiscountWritesTotal, op, "conflict")
		common.WriteError(w, common.Conflict("discount already exists", err))
	default:
		obs.IncCounter(obs.SupplierDiscountWritesTotal, op, "error")
		h.Logger.Error().Err(err).Str("op", op).Msg("supplier discount repository error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to "+strings.ReplaceAll(op, "_", " ")+" discount", nil)
	}
}

func (h *Handler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// buildRule checks a payload against the column rules of its discount type and converts it into a Rule.
// defaultFrom is used when the payload carries no validFrom.
func buildRule(supplierID, id uuid.UUID, p discountPayload, defaultFrom time.Time) (discount.Rule, error) {
	rec := discount.Record{
		ID:               id,
		SupplierID:       supplierID,
		DiscountType:     p.DiscountType,
		MinQuantity:      p.MinQuantity,
		MinAmount:        p.MinAmount,
		PaymentTermsDays: p.PaymentTermsDays,
		DiscountAmount:   p.DiscountAmount,
		IsActive:         true,
		Notes:            strings.TrimSpace(p.Notes),
	}
	if p.DiscountPercentage != nil {
		rec.DiscountPercentage = *p.DiscountPercentage
	}
	if p.IsActive != nil {
		rec.IsActive = *p.IsActive
	}
	var err error
	if rec.BrandID, err = optionalUUID(p.BrandID); err != nil {
		return discount.Rule{}, errors.New("invalid brand id")
	}
	if rec.CategoryID, err = optionalUUID(p.CategoryID); err != nil {
		return discount.Rule{}, errors.New("invalid category id")
	}
	rec.ValidFrom = defaultFrom
	if p.ValidFrom != "" {
		if rec.ValidFrom, err = time.Parse(time.DateOnly, p.ValidFrom); err != nil {
			return discount.Rule{}, errors.New("invalid validFrom")
		}
	}
	if p.ValidUntil != "" {
		until, err := time.Parse(time.DateOnly, p.ValidUntil)
		if err != nil {
			return discount.Rule{}, errors.New("invalid validUntil")
		}
		rec.ValidUntil = &until
	}
	return discount.RuleFromRecord(rec)
}

func activeRecords(records []discount.Record, supplierID uuid.UUID, asOf time.Time) []discount.Record {
	rules := make([]discount.Rule, 0, len(records))
	byID := make(map[uuid.UUID]discount.Record, len(records))
	for _, rec := range records {
		rule, err := discount.RuleFromRecord(rec)
		if err != nil {
			continue
		}
		rules = append(rules, rule)
		byID[rec.ID] = rec
	}
	active := discount.FilterActive(rules, supplierID, asOf)
	out := make([]discount.Record, 0, len(active))
	for _, rule := range active {
		out = append(out, byID[rule.ID])
	}
	return out
}

func toView(rec discount.Record) ruleView {
	kind := discount.Kind(rec.DiscountType)
	v := ruleView{
		ID:                 rec.ID.String(),
		SupplierID:         rec.SupplierID.String(),
		DiscountType:       rec.DiscountType,
		Label:              kind.Label(),
		MinQuantity:        rec.MinQuantity,
		MinAmount:          rec.MinAmount,
		PaymentTermsDays:   rec.PaymentTermsDays,
		DiscountPercentage: rec.DiscountPercentage,
		DiscountAmount:     rec.DiscountAmount,
		ValidFrom:          rec.ValidFrom.Format(time.DateOnly),
		IsActive:           rec.IsActive,
		Notes:              rec.Notes,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.BrandID != nil {
		s := rec.BrandID.String()
		v.BrandID = &s
	}
	if rec.CategoryID != nil {
		s := rec.CategoryID.String()
		v.CategoryID = &s
	}
	if rec.ValidUntil != nil {
		s := rec.ValidUntil.Format(time.DateOnly)
		v.ValidUntil = &s
	}
	return v
}

func optionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
