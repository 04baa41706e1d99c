package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/obs"
)

// ActorHeader carries the operator name sent by the purchase-entry client.
const ActorHeader = "X-Actor"

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindOperator is a named back-office operator.
	ActorKindOperator ActorKind = "operator"
	// ActorKindSystem represents seeding and other automated writes.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous is used when the client did not identify itself.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes who performed the action.
type Actor struct {
	Kind ActorKind
	Name string
}

// Entry is one persisted audit log row.
type Entry struct {
	ID           int64           `json:"id"`
	ActorKind    ActorKind       `json:"actorKind"`
	ActorName    *string         `json:"actorName"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   *string         `json:"resourceId"`
	SupplierID   *uuid.UUID      `json:"supplierId"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Route        *string         `json:"route"`
	Status       int             `json:"status"`
	IP           *string         `json:"ip"`
	UserAgent    *string         `json:"userAgent"`
	RequestID    *string         `json:"requestId"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ListFilter pages through a supplier's audit trail, newest first.
type ListFilter struct {
	SupplierID uuid.UUID
	Limit      int
	Offset     int
}

// Store persists and lists audit entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, f ListFilter) ([]Entry, error)
}

// Service records changes to supplier discount configuration.
type Service struct {
	Store   Store
	Enabled bool
}

// Record persists an audit entry for req when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, supplierID *uuid.UUID, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RouteFor(req)
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return s.Store.Insert(ctx, Entry{
		ActorKind:    normalizeActorKind(actor.Kind),
		ActorName:    pointerOf(actor.Name),
		Action:       buildAction(action, req.Method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   pointerOf(resourceID),
		SupplierID:   supplierID,
		Method:       req.Method,
		Path:         req.URL.Path,
		Route:        pointerOf(route),
		Status:       status,
		IP:           pointerOf(common.ClientIP(req)),
		UserAgent:    pointerOf(req.Header.Get("User-Agent")),
		RequestID:    pointerOf(req.Header.Get("X-Request-ID")),
		Metadata:     toJSONB(metadata, req.URL.RawQuery),
	})
}

// ActorFromRequest identifies the operator from the X-Actor header.
func ActorFromRequest(req *http.Request) Actor {
	if req == nil {
		return Actor{Kind: ActorKindAnonymous}
	}
	if name := strings.TrimSpace(req.Header.Get(ActorHeader)); name != "" {
		if len(name) > 120 {
			name = name[:120]
		}
		return Actor{Kind: ActorKindOperator, Name: name}
	}
	return Actor{Kind: ActorKindAnonymous}
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource derives a dotted resource name from the route, skipping the
// API prefix and path parameters: /api/v1/suppliers/{supplierID}/discounts -> suppliers.discounts.
func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	segments := strings.Split(strings.Trim(strings.TrimSpace(route), "/"), "/")
	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		if seg == "" || strings.HasPrefix(seg, "{") || seg == "*" {
			continue
		}
		if (i == 0 && seg == "api") || (i == 1 && seg == "v1") {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindOperator, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func pointerOf(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toJSONB(metadata []byte, query string) json.RawMessage {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
