package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Type  string  `json:"discountType" validate:"required,oneof=brand category"`
	ID    string  `json:"supplierId" validate:"required,uuid"`
	Notes *string `json:"notes" validate:"omitempty,max=5"`
}

func decode(body string) (sample, error) {
	var s sample
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return s, DecodeJSON(req, &s)
}

func TestDecodeJSONValid(t *testing.T) {
	s, err := decode(`{"discountType":"brand","supplierId":"6f1c8a1e-9d8b-4d7e-8c11-3a4b5c6d7e8f"}`)
	require.NoError(t, err)
	require.Equal(t, "brand", s.Type)
}

func TestDecodeJSONReportsFieldErrors(t *testing.T) {
	_, err := decode(`{"discountType":"loyalty","supplierId":"nope"}`)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be one of [brand category]", details["discountType"])
	require.Equal(t, "must be a valid uuid", details["supplierId"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	_, err := decode(`{"discountType":"brand","supplierId":"6f1c8a1e-9d8b-4d7e-8c11-3a4b5c6d7e8f","extra":1}`)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NotFound("discount not found", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"NOT_FOUND"`)

	rr = httptest.NewRecorder()
	WriteError(rr, errFake{})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

type errFake struct{}

func (errFake) Error() string { return "boom" }
