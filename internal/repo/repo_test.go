package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-erp/internal/discount"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// stubDB answers every call with canned results.
type stubDB struct {
	tag     pgconn.CommandTag
	execErr error
	rowErr  error
	lastSQL string
}

func (s *stubDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.lastSQL = sql
	return s.tag, s.execErr
}

func (s *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	s.lastSQL = sql
	return errRow{err: s.rowErr}
}

func TestTranslateError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "supplier_discounts_pkey"}
	require.ErrorIs(t, translateError(unique), ErrConflict)

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "supplier_discounts_brand_id_fkey"}
	err := translateError(fk)
	require.ErrorIs(t, err, ErrReferenceMissing)
	require.Contains(t, err.Error(), "brand_id_fkey")

	check := &pgconn.PgError{Code: "23514", ConstraintName: "supplier_discounts_window"}
	require.ErrorIs(t, translateError(check), discount.ErrInvalidRule)

	other := &pgconn.PgError{Code: "22003"}
	require.Same(t, error(other), translateError(other))

	plain := errors.New("boom")
	require.Equal(t, plain, translateError(plain))
}

func TestIsTransient(t *testing.T) {
	require.False(t, IsTransient(nil))
	require.False(t, IsTransient(pgx.ErrNoRows))
	require.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	require.True(t, IsTransient(&pgconn.PgError{Code: "57P01"}))
	require.True(t, IsTransient(errors.New("dial tcp: connection refused")))
}

func TestUUIDHelpers(t *testing.T) {
	id := uuid.New()
	require.Equal(t, pgtype.UUID{Bytes: id, Valid: true}, pgUUID(id))
	require.False(t, pgNullableUUID(nil).Valid)
	require.Equal(t, &id, fromPgUUID(pgNullableUUID(&id)))
	require.Nil(t, fromPgUUID(pgtype.UUID{}))
}

func TestNumericConversion(t *testing.T) {
	d := decimal.RequireFromString("12.345")
	n := numericParam(d)
	require.True(t, n.Valid)
	require.True(t, decimalValue(n).Equal(d))

	require.True(t, decimalValue(pgtype.Numeric{}).IsZero())
	require.Nil(t, decimalPtr(pgtype.Numeric{}))
	require.Nil(t, decimalPtr(pgtype.Numeric{Valid: true, NaN: true}))
	require.False(t, numericParamPtr(nil).Valid)
	require.True(t, decimalPtr(numericParamPtr(&d)).Equal(d))
}

func TestScalarParams(t *testing.T) {
	q := int64(50)
	days := 30
	require.Equal(t, pgtype.Int8{Int64: 50, Valid: true}, int8Param(&q))
	require.False(t, int8Param(nil).Valid)
	require.Equal(t, pgtype.Int4{Int32: 30, Valid: true}, int4Param(&days))
	require.False(t, int4Param(nil).Valid)

	at := time.Date(2026, 5, 10, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	date := dateParam(&at)
	require.True(t, date.Valid)
	require.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), date.Time)
	require.False(t, dateParam(nil).Valid)
	require.False(t, dateParam(&time.Time{}).Valid)
}

func TestRecordFromRow(t *testing.T) {
	id, supplier, brand := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	row := discountRow{
		ID:                 pgUUID(id),
		SupplierID:         pgUUID(supplier),
		DiscountType:       "brand",
		BrandID:            pgUUID(brand),
		DiscountPercentage: numericParam(decimal.RequireFromString("10")),
		DiscountAmount:     numericParam(decimal.RequireFromString("2.50")),
		ValidFrom:          pgtype.Date{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		IsActive:           true,
		Notes:              pgtype.Text{String: "festive", Valid: true},
		CreatedAt:          pgtype.Timestamptz{Time: created, Valid: true},
		UpdatedAt:          pgtype.Timestamptz{Time: created, Valid: true},
	}
	rec := recordFromRow(row)
	require.Equal(t, id, rec.ID)
	require.Equal(t, supplier, rec.SupplierID)
	require.Equal(t, &brand, rec.BrandID)
	require.Nil(t, rec.CategoryID)
	require.Nil(t, rec.MinQuantity)
	require.Nil(t, rec.PaymentTermsDays)
	require.Nil(t, rec.ValidUntil)
	require.Equal(t, "2.5", rec.DiscountAmount.String())
	require.Equal(t, "festive", rec.Notes)

	rule, err := discount.RuleFromRecord(rec)
	require.NoError(t, err)
	require.Equal(t, discount.KindBrand, rule.Kind())
}

func TestBrokenRuleKeepsIdentity(t *testing.T) {
	rec := discount.Record{ID: uuid.New(), SupplierID: uuid.New(), DiscountType: "brand", IsActive: true}
	_, err := discount.RuleFromRecord(rec)
	require.ErrorIs(t, err, discount.ErrInvalidRule)

	rule := brokenRule(rec)
	require.Equal(t, rec.ID, rule.ID)
	require.True(t, rule.Active)
	require.ErrorIs(t, rule.Validate(), discount.ErrInvalidRule)
}

func TestQueryOneMapsErrors(t *testing.T) {
	db := &stubDB{rowErr: pgx.ErrNoRows}
	repo := SupplierDiscountRepo{DB: db}
	_, err := repo.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, discount.ErrRuleNotFound)
	require.Equal(t, getDiscountSQL, db.lastSQL)

	db.rowErr = &pgconn.PgError{Code: "23503"}
	_, err = repo.SetActive(context.Background(), uuid.New(), uuid.New(), false)
	require.ErrorIs(t, err, ErrReferenceMissing)
	require.Equal(t, setDiscountActiveSQL, db.lastSQL)
}

func TestDeleteReportsMissingRow(t *testing.T) {
	db := &stubDB{tag: pgconn.NewCommandTag("DELETE 0")}
	repo := SupplierDiscountRepo{DB: db}
	require.ErrorIs(t, repo.Delete(context.Background(), uuid.New(), uuid.New()), discount.ErrRuleNotFound)

	db.tag = pgconn.NewCommandTag("DELETE 1")
	require.NoError(t, repo.Delete(context.Background(), uuid.New(), uuid.New()))
	require.Equal(t, deleteDiscountSQL, db.lastSQL)
}
