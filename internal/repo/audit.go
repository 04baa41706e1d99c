package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-erp/internal/audit"
)

const (
	insertAuditSQL = `INSERT INTO audit_logs (
	actor_kind, actor_name, action, resource_type, resource_id, supplier_id, method, path, route,
	status, ip, user_agent, request_id, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	listAuditBySupplierSQL = `SELECT id, actor_kind, actor_name, action, resource_type, resource_id, supplier_id,
	method, path, route, status, ip, user_agent, request_id, metadata, created_at
FROM audit_logs WHERE supplier_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
)

// AuditRepo stores audit entries in audit_logs.
type AuditRepo struct {
	DB DBTX
}

// Insert implements audit.Store.
func (r AuditRepo) Insert(ctx context.Context, e audit.Entry) error {
	var metadata []byte
	if len(e.Metadata) > 0 {
		metadata = e.Metadata
	}
	_, err := r.DB.Exec(ctx, insertAuditSQL,
		string(e.ActorKind), e.ActorName, e.Action, e.ResourceType, e.ResourceID, pgNullableUUID(e.SupplierID),
		e.Method, e.Path, e.Route, int32(e.Status), e.IP, e.UserAgent, e.RequestID, metadata,
	)
	return translateError(err)
}

// List implements audit.Store.
func (r AuditRepo) List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, error) {
	rows, err := r.DB.Query(ctx, listAuditBySupplierSQL, pgUUID(f.SupplierID), int32(f.Limit), int32(f.Offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0)
	for rows.Next() {
		var (
			e          audit.Entry
			kind       string
			supplierID pgtype.UUID
			status     int32
			createdAt  pgtype.Timestamptz
			metadata   []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.ActorName, &e.Action, &e.ResourceType, &e.ResourceID, &supplierID,
			&e.Method, &e.Path, &e.Route, &status, &e.IP, &e.UserAgent, &e.RequestID, &metadata, &createdAt); err != nil {
			return nil, err
		}
		e.ActorKind = audit.ActorKind(kind)
		e.SupplierID = fromPgUUID(supplierID)
		e.Status = int(status)
		e.Metadata = metadata
		e.CreatedAt = createdAt.Time
		out = append(out, e)
	}
	return out, rows.Err()
}
