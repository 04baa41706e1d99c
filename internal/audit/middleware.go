package audit

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HTTPRecorder records discount configuration writes after they were handled.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// HTTPConfig customises the audit entry produced for a route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	SupplierParam   string
	MetadataFunc    func(*http.Request, int) map[string]any
}

// Middleware returns a chi middleware that records an entry per request.
// Rejected requests (4xx) are recorded too so refused edits stay visible.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Service == nil || !r.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, req)

			resourceID := ""
			if cfg.ResourceIDParam != "" {
				resourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}
			var supplierID *uuid.UUID
			if cfg.SupplierParam != "" {
				if id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(req, cfg.SupplierParam))); err == nil {
					supplierID = &id
				}
			}
			if rec.header != nil {
				// creates only learn their id from the response
				if id := rec.header.Get("Location"); resourceID == "" && id != "" {
					resourceID = id[strings.LastIndex(id, "/")+1:]
				}
			}

			var metadata []byte
			if cfg.MetadataFunc != nil {
				if payload := cfg.MetadataFunc(req, rec.Status()); payload != nil {
					if data, err := json.Marshal(payload); err == nil {
						metadata = data
					}
				}
			}

			err := r.Service.Record(req.Context(), ActorFromRequest(req), cfg.Action, cfg.ResourceType, resourceID, supplierID, req, rec.Status(), metadata)
			if err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	header http.Header
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
		s.header = s.ResponseWriter.Header().Clone()
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
