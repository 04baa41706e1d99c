package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/discount"
)

const discountColumns = `id, supplier_id, discount_type, brand_id, category_id, min_quantity, min_amount,
	payment_terms_days, discount_percentage, discount_amount, valid_from, valid_until, is_active, notes,
	created_at, updated_at`

const (
	listDiscountsBySupplierSQL = `SELECT ` + discountColumns + ` FROM supplier_discounts
WHERE supplier_id = $1 ORDER BY created_at, id`

	getDiscountSQL = `SELECT ` + discountColumns + ` FROM supplier_discounts
WHERE supplier_id = $1 AND id = $2`

	insertDiscountSQL = `INSERT INTO supplier_discounts (
	supplier_id, discount_type, brand_id, category_id, min_quantity, min_amount, payment_terms_days,
	discount_percentage, discount_amount, valid_from, valid_until, is_active, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, CURRENT_DATE), $11, $12, $13)
RETURNING ` + discountColumns

	updateDiscountSQL = `UPDATE supplier_discounts SET
	discount_type = $3, brand_id = $4, category_id = $5, min_quantity = $6, min_amount = $7,
	payment_terms_days = $8, discount_percentage = $9, discount_amount = $10, valid_from = COALESCE($11, valid_from),
	valid_until = $12, is_active = $13, notes = $14, updated_at = now()
WHERE supplier_id = $1 AND id = $2
RETURNING ` + discountColumns

	setDiscountActiveSQL = `UPDATE supplier_discounts SET is_active = $3, updated_at = now()
WHERE supplier_id = $1 AND id = $2
RETURNING ` + discountColumns

	deleteDiscountSQL = `DELETE FROM supplier_discounts WHERE supplier_id = $1 AND id = $2`
)

// SupplierDiscountRepo persists supplier discount rules.
type SupplierDiscountRepo struct {
	DB DBTX
}

// discountRow is the raw column set of supplier_discounts.
type discountRow struct {
	ID                 pgtype.UUID
	SupplierID         pgtype.UUID
	DiscountType       string
	BrandID            pgtype.UUID
	CategoryID         pgtype.UUID
	MinQuantity        pgtype.Int8
	MinAmount          pgtype.Numeric
	PaymentTermsDays   pgtype.Int4
	DiscountPercentage pgtype.Numeric
	DiscountAmount     pgtype.Numeric
	ValidFrom          pgtype.Date
	ValidUntil         pgtype.Date
	IsActive           bool
	Notes              pgtype.Text
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

func (r *discountRow) scan(row pgx.Row) error {
	return row.Scan(
		&r.ID, &r.SupplierID, &r.DiscountType, &r.BrandID, &r.CategoryID, &r.MinQuantity, &r.MinAmount,
		&r.PaymentTermsDays, &r.DiscountPercentage, &r.DiscountAmount, &r.ValidFrom, &r.ValidUntil,
		&r.IsActive, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
}

// ListBySupplier returns every rule of the supplier, including inactive ones, oldest first.
// Rows that cannot be converted are returned as rules without a condition so the matcher reports them.
func (r SupplierDiscountRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]discount.Rule, error) {
	rows, err := r.DB.Query(ctx, listDiscountsBySupplierSQL, pgUUID(supplierID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []discount.Rule
	for rows.Next() {
		var row discountRow
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		rec := recordFromRow(row)
		rule, err := discount.RuleFromRecord(rec)
		if err != nil {
			rule = brokenRule(rec)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single rule of the supplier.
func (r SupplierDiscountRepo) Get(ctx context.Context, supplierID, id uuid.UUID) (discount.Record, error) {
	return r.queryOne(ctx, getDiscountSQL, pgUUID(supplierID), pgUUID(id))
}

// ListRecords returns the supplier's rows as stored.
func (r SupplierDiscountRepo) ListRecords(ctx context.Context, supplierID uuid.UUID) ([]discount.Record, error) {
	rows, err := r.DB.Query(ctx, listDiscountsBySupplierSQL, pgUUID(supplierID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]discount.Record, 0)
	for rows.Next() {
		var row discountRow
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		out = append(out, recordFromRow(row))
	}
	return out, rows.Err()
}

// Create inserts a rule and returns the stored row.
func (r SupplierDiscountRepo) Create(ctx context.Context, rule discount.Rule) (discount.Record, error) {
	rec := discount.ToRecord(rule)
	return r.queryOne(ctx, insertDiscountSQL,
		pgUUID(rec.SupplierID), rec.DiscountType, pgNullableUUID(rec.BrandID), pgNullableUUID(rec.CategoryID),
		int8Param(rec.MinQuantity), numericParamPtr(rec.MinAmount), int4Param(rec.PaymentTermsDays),
		numericParam(rec.DiscountPercentage), numericParamPtr(rec.DiscountAmount),
		dateParam(&rec.ValidFrom), dateParam(rec.ValidUntil), rec.IsActive, rec.Notes,
	)
}

// Update replaces the rule identified by rule.ID for rule.SupplierID.
func (r SupplierDiscountRepo) Update(ctx context.Context, rule discount.Rule) (discount.Record, error) {
	rec := discount.ToRecord(rule)
	return r.queryOne(ctx, updateDiscountSQL,
		pgUUID(rec.SupplierID), pgUUID(rec.ID), rec.DiscountType, pgNullableUUID(rec.BrandID), pgNullableUUID(rec.CategoryID),
		int8Param(rec.MinQuantity), numericParamPtr(rec.MinAmount), int4Param(rec.PaymentTermsDays),
		numericParam(rec.DiscountPercentage), numericParamPtr(rec.DiscountAmount),
		dateParam(&rec.ValidFrom), dateParam(rec.ValidUntil), rec.IsActive, rec.Notes,
	)
}

// SetActive toggles is_active on a rule.
func (r SupplierDiscountRepo) SetActive(ctx context.Context, supplierID, id uuid.UUID, active bool) (discount.Record, error) {
	return r.queryOne(ctx, setDiscountActiveSQL, pgUUID(supplierID), pgUUID(id), active)
}

// Delete removes a rule. It returns discount.ErrRuleNotFound when nothing was deleted.
func (r SupplierDiscountRepo) Delete(ctx context.Context, supplierID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteDiscountSQL, pgUUID(supplierID), pgUUID(id))
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrRuleNotFound
	}
	return nil
}

func (r SupplierDiscountRepo) queryOne(ctx context.Context, sql string, args ...any) (discount.Record, error) {
	var row discountRow
	if err := row.scan(r.DB.QueryRow(ctx, sql, args...)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.Record{}, discount.ErrRuleNotFound
		}
		return discount.Record{}, translateError(err)
	}
	return recordFromRow(row), nil
}

func recordFromRow(row discountRow) discount.Record {
	rec := discount.Record{
		SupplierID:         uuid.UUID(row.SupplierID.Bytes),
		ID:                 uuid.UUID(row.ID.Bytes),
		DiscountType:       row.DiscountType,
		BrandID:            fromPgUUID(row.BrandID),
		CategoryID:         fromPgUUID(row.CategoryID),
		MinAmount:          decimalPtr(row.MinAmount),
		DiscountPercentage: decimalValue(row.DiscountPercentage),
		DiscountAmount:     decimalPtr(row.DiscountAmount),
		IsActive:           row.IsActive,
		Notes:              row.Notes.String,
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
	if row.MinQuantity.Valid {
		q := row.MinQuantity.Int64
		rec.MinQuantity = &q
	}
	if row.PaymentTermsDays.Valid {
		d := int(row.PaymentTermsDays.Int32)
		rec.PaymentTermsDays = &d
	}
	if row.ValidFrom.Valid {
		rec.ValidFrom = row.ValidFrom.Time
	}
	if row.ValidUntil.Valid {
		until := row.ValidUntil.Time
		rec.ValidUntil = &until
	}
	return rec
}

// brokenRule keeps identity and activity of an unconvertible row so evaluation can report it.
func brokenRule(rec discount.Record) discount.Rule {
	return discount.Rule{
		ID:         rec.ID,
		SupplierID: rec.SupplierID,
		Percentage: rec.DiscountPercentage,
		ValidFrom:  rec.ValidFrom,
		ValidUntil: rec.ValidUntil,
		Active:     rec.IsActive,
		Notes:      rec.Notes,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func decimalValue(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil || n.NaN {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalPtr(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil || n.NaN {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

func numericParam(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericParamPtr(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return numericParam(*d)
}

func int8Param(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func int4Param(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func dateParam(t *time.Time) pgtype.Date {
	if t == nil || t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}
