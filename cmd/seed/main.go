package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/config"
	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/obs"
	"github.com/noah-isme/backend-erp/internal/repo"
)

var (
	demoSupplierID = uuid.MustParse("0b6f3c1e-4d2a-4f5b-9a61-2c7d8e9f0a11")
	demoProductID  = uuid.MustParse("5a1d2e3f-6b7c-4d8e-9f01-a2b3c4d5e6f7")
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("cmd", "seed").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return seed(ctx, tx, logger)
	}); err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Str("supplier_id", demoSupplierID.String()).Msg("seeding completed")
}

func seed(ctx context.Context, tx pgx.Tx, logger zerolog.Logger) error {
	brandID, err := upsertNamed(ctx, tx, "brands", "Schwabe")
	if err != nil {
		return err
	}
	categoryID, err := upsertNamed(ctx, tx, "categories", "Dilutions")
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO suppliers (id, name, payment_terms_days) VALUES ($1, 'Demo Homeo Distributors', 30)
ON CONFLICT (id) DO NOTHING`, demoSupplierID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO products (id, name, sku, brand_id, category_id)
VALUES ($1, 'Arnica Montana 30C 30ml', 'ARN-30C-30', $2, $3)
ON CONFLICT (id) DO UPDATE SET brand_id = EXCLUDED.brand_id, category_id = EXCLUDED.category_id`,
		demoProductID, brandID, categoryID); err != nil {
		return err
	}

	discounts := repo.SupplierDiscountRepo{DB: tx}
	existing, err := discounts.ListRecords(ctx, demoSupplierID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("rules", len(existing)).Msg("supplier already has discount rules, skipping")
		return nil
	}

	validFrom := time.Now().UTC().AddDate(0, -1, 0)
	minQty := int64(100)
	fixed := decimal.NewFromInt(50)
	rules := []discount.Rule{
		{Condition: discount.BrandCondition{BrandID: brandID}, Percentage: decimal.NewFromInt(5), Notes: "Schwabe brand promotion"},
		{Condition: discount.CategoryCondition{CategoryID: categoryID}, Percentage: decimal.NewFromInt(3)},
		{Condition: discount.VolumeCondition{MinQuantity: &minQty}, Percentage: decimal.NewFromInt(2), FixedAmount: &fixed, Notes: "100+ units"},
	}
	for _, r := range rules {
		r.SupplierID = demoSupplierID
		r.ValidFrom = validFrom
		r.Active = true
		rec, err := discounts.Create(ctx, r)
		if err != nil {
			return err
		}
		logger.Info().Str("rule_id", rec.ID.String()).Str("type", rec.DiscountType).Msg("rule created")
	}
	return nil
}

func upsertNamed(ctx context.Context, tx pgx.Tx, table, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `INSERT INTO `+table+` (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, name).Scan(&id)
	return id, err
}
