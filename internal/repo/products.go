package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productAttributesSQL = `SELECT id, brand_id, category_id FROM products WHERE id = ANY($1)`

// ProductAttributes are the product master fields the discount matcher needs.
type ProductAttributes struct {
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
}

// ProductsRepo reads the product master.
type ProductsRepo struct {
	DB DBTX
}

// Attributes resolves brand and category for the given products. Unknown ids are absent from the result.
func (r ProductsRepo) Attributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductAttributes, error) {
	out := make(map[uuid.UUID]ProductAttributes, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	params := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		params = append(params, pgUUID(id))
	}
	rows, err := r.DB.Query(ctx, productAttributesSQL, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, brand, category pgtype.UUID
		if err := rows.Scan(&id, &brand, &category); err != nil {
			return nil, err
		}
		out[uuid.UUID(id.Bytes)] = ProductAttributes{
			BrandID:    fromPgUUID(brand),
			CategoryID: fromPgUUID(category),
		}
	}
	return out, rows.Err()
}
