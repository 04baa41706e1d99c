package purchase

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-erp/internal/discount"
)

func servePreview(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/discount-preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	return rec
}

func TestPreviewHandlerReturnsPricing(t *testing.T) {
	svc, _ := newTestService(t, discount.NewMemoryStore(exampleRules()...), nil)
	h := &Handler{Svc: svc}

	body := `{"supplierId":"` + supplierID.String() + `","purchaseDate":"2026-05-10","items":[` +
		`{"productId":"cccccccc-0000-0000-0000-000000000001","brandId":"` + brandX.String() + `","quantity":100,"unitPrice":"20"}]}`
	rec := servePreview(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			AsOf  string `json:"asOf"`
			Items []struct {
				Pricing struct {
					DiscountedRate string `json:"discountedRate"`
					MRP            string `json:"mrp"`
				} `json:"pricing"`
			} `json:"items"`
			Totals struct {
				TotalDiscountAmount string `json:"totalDiscountAmount"`
			} `json:"totals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2026-05-10", resp.Data.AsOf)
	require.Equal(t, "302", resp.Data.Totals.TotalDiscountAmount)
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, "16.98", resp.Data.Items[0].Pricing.DiscountedRate)
	require.Equal(t, "26.15", resp.Data.Items[0].Pricing.MRP)
}

func TestPreviewHandlerRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, discount.NewMemoryStore(), nil)
	h := &Handler{Svc: svc}

	cases := map[string]string{
		"missing supplier": `{"items":[{"productId":"cccccccc-0000-0000-0000-000000000001","quantity":1,"unitPrice":"1"}]}`,
		"no items":         `{"supplierId":"` + supplierID.String() + `","items":[]}`,
		"bad date":         `{"supplierId":"` + supplierID.String() + `","purchaseDate":"10/05/2026","items":[{"productId":"cccccccc-0000-0000-0000-000000000001","quantity":1,"unitPrice":"1"}]}`,
		"bad brand":        `{"supplierId":"` + supplierID.String() + `","items":[{"productId":"cccccccc-0000-0000-0000-000000000001","brandId":"x","quantity":1,"unitPrice":"1"}]}`,
		"unknown field":    `{"supplierId":"` + supplierID.String() + `","coupon":"X","items":[{"productId":"cccccccc-0000-0000-0000-000000000001","quantity":1,"unitPrice":"1"}]}`,
		"malformed":        `{"supplierId":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := servePreview(t, h, body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestPreviewHandlerFlagsInvalidLines(t *testing.T) {
	svc, _ := newTestService(t, discount.NewMemoryStore(exampleRules()...), nil)
	h := &Handler{Svc: svc}

	body := `{"supplierId":"` + supplierID.String() + `","items":[{"productId":"cccccccc-0000-0000-0000-000000000001","quantity":0,"unitPrice":"20"}]}`
	rec := servePreview(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pricing":null`)
	require.Contains(t, rec.Body.String(), string(discount.WarningInvalidItem))
}

func TestPreviewHandlerWithoutService(t *testing.T) {
	rec := servePreview(t, &Handler{}, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
