package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/soleserve/api/internal/service"
)

// BillingAPI is the slice of the billing service the handler needs.
type BillingAPI interface {
	CreateBilling(ctx context.Context, req service.CreateBillingRequest) (*service.BillingResult, error)
	GetBilling(ctx context.Context, enquiryID int64) (*service.BillingResult, error)
}

type BillingHandler struct {
	billing BillingAPI
}

func NewBillingHandler(billing BillingAPI) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.Get)
}

type billingLineRequest struct {
	ServiceType     string `json:"service_type"`
	Product         string `json:"product"`
	ItemIndex       int32  `json:"item_index"`
	OriginalAmount  string `json:"original_amount"`
	DiscountPercent string `json:"discount_percent"`
	GstPercent      string `json:"gst_percent"`
}

type createBillingRequest struct {
	GstIncluded bool                 `json:"gst_included"`
	Notes       string               `json:"notes"`
	Lines       []billingLineRequest `json:"lines"`
}

func (h *BillingHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req createBillingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.InvoiceLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		original, err := decimal.NewFromString(l.OriginalAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid original_amount")
			return
		}
		discount, err := parsePercent(l.DiscountPercent)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid discount_percent")
			return
		}
		gst, err := parsePercent(l.GstPercent)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gst_percent")
			return
		}
		lines = append(lines, service.InvoiceLine{
			ServiceType:     l.ServiceType,
			Product:         l.Product,
			ItemIndex:       l.ItemIndex,
			OriginalAmount:  original,
			DiscountPercent: discount,
			GstPercent:      gst,
		})
	}

	result, err := h.billing.CreateBilling(r.Context(), service.CreateBillingRequest{
		EnquiryID:   id,
		GstIncluded: req.GstIncluded,
		Notes:       req.Notes,
		Lines:       lines,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillingResponse(result.Detail, result.Items))
}

func (h *BillingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	result, err := h.billing.GetBilling(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillingResponse(result.Detail, result.Items))
}

// parsePercent treats an omitted percentage as zero.
func parsePercent(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
