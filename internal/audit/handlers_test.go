package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func serveList(h Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/suppliers/{supplierID}/discounts/audit", h.List)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlerList(t *testing.T) {
	supplierID := uuid.New()
	store := &stubStore{entries: []Entry{{ID: 7, ActorKind: ActorKindOperator, Action: "discount.update", Status: 200}}}

	rec := serveList(Handler{Store: store}, "/suppliers/"+supplierID.String()+"/discounts/audit?limit=500&offset=-3")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if store.filter.SupplierID != supplierID || store.filter.Limit != 50 || store.filter.Offset != 0 {
		t.Fatalf("unexpected filter: %+v", store.filter)
	}
	var resp struct {
		Data []Entry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != 7 {
		t.Fatalf("unexpected data: %+v", resp.Data)
	}
}

func TestHandlerListErrors(t *testing.T) {
	if rec := serveList(Handler{}, "/suppliers/"+uuid.NewString()+"/discounts/audit"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without store, got %d", rec.Code)
	}
	if rec := serveList(Handler{Store: &stubStore{}}, "/suppliers/nope/discounts/audit"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad supplier, got %d", rec.Code)
	}
	if rec := serveList(Handler{Store: &stubStore{err: errors.New("db")}}, "/suppliers/"+uuid.NewString()+"/discounts/audit"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store error, got %d", rec.Code)
	}
}
