package purchase

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/resilience"
)

// Handler exposes the purchase-entry discount preview endpoint.
type Handler struct {
	Svc *Service
}

type previewRequest struct {
	SupplierID       string               `json:"supplierId" validate:"required,uuid"`
	PurchaseDate     string               `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	PaymentTermsDays int                  `json:"paymentTermsDays" validate:"gte=0"`
	Items            []previewRequestItem `json:"items" validate:"required,min=1,max=500,dive"`
}

type previewRequestItem struct {
	ProductID        string          `json:"productId" validate:"required,uuid"`
	BrandID          *string         `json:"brandId" validate:"omitempty,uuid"`
	CategoryID       *string         `json:"categoryId" validate:"omitempty,uuid"`
	Quantity         int64           `json:"quantity" validate:"gte=0"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	PaymentTermsDays *int            `json:"paymentTermsDays" validate:"omitempty,gte=0"`
}

// Preview recomputes discounts and suggested prices for the submitted purchase lines.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "purchase service not configured", nil)
		return
	}
	var req previewRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	in, err := toPreviewInput(req)
	if err != nil {
		common.WriteError(w, common.BadRequest(err.Error(), err))
		return
	}
	result, err := h.Svc.Preview(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrNoItems) {
			common.WriteError(w, common.BadRequest(err.Error(), err))
			return
		}
		if errors.Is(err, resilience.ErrOpenCircuit) {
			w.Header().Set("Retry-After", "5")
			common.JSONError(w, http.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE", "discount data temporarily unavailable", nil)
			return
		}
		h.Svc.Logger.Error().Err(err).Str("supplier_id", in.SupplierID.String()).Msg("discount preview failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute discounts", nil)
		return
	}
	common.Data(w, http.StatusOK, result)
}

func toPreviewInput(req previewRequest) (PreviewInput, error) {
	supplierID, err := uuid.Parse(strings.TrimSpace(req.SupplierID))
	if err != nil {
		return PreviewInput{}, errors.New("invalid supplier id")
	}
	in := PreviewInput{
		SupplierID:       supplierID,
		PaymentTermsDays: req.PaymentTermsDays,
		Items:            make([]ItemInput, 0, len(req.Items)),
	}
	if d := strings.TrimSpace(req.PurchaseDate); d != "" {
		parsed, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return PreviewInput{}, errors.New("invalid purchase date")
		}
		in.PurchaseDate = parsed
	}
	for _, it := range req.Items {
		productID, err := uuid.Parse(strings.TrimSpace(it.ProductID))
		if err != nil {
			return PreviewInput{}, errors.New("invalid product id")
		}
		item := ItemInput{
			ProductID:        productID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			PaymentTermsDays: it.PaymentTermsDays,
		}
		if item.BrandID, err = optionalUUID(it.BrandID); err != nil {
			return PreviewInput{}, errors.New("invalid brand id")
		}
		if item.CategoryID, err = optionalUUID(it.CategoryID); err != nil {
			return PreviewInput{}, errors.New("invalid category id")
		}
		in.Items = append(in.Items, item)
	}
	return in, nil
}

func optionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
