package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case service.IsPreconditionFailed(err), service.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// --- pgtype -> JSON bridging ---

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func int64Ptr(n pgtype.Int8) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

func int32Ptr(n pgtype.Int4) *int32 {
	if !n.Valid {
		return nil
	}
	return &n.Int32
}

func amount(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	v, err := n.Value()
	if err != nil || v == nil {
		return "0"
	}
	return v.(string)
}

func amountPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := amount(n)
	return &s
}

// --- response shapes ---

type enquiryResponse struct {
	ID              int64     `json:"id"`
	TrackingCode    string    `json:"tracking_code"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress *string   `json:"customer_address,omitempty"`
	CurrentStage    string    `json:"current_stage"`
	QuotedAmount    *string   `json:"quoted_amount,omitempty"`
	FinalAmount     *string   `json:"final_amount,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toEnquiryResponse(e database.Enquiry) enquiryResponse {
	return enquiryResponse{
		ID:              e.ID,
		TrackingCode:    e.TrackingCode.String(),
		CustomerName:    e.CustomerName,
		CustomerPhone:   e.CustomerPhone,
		CustomerAddress: textPtr(e.CustomerAddress),
		CurrentStage:    e.CurrentStage,
		QuotedAmount:    amountPtr(e.QuotedAmount),
		FinalAmount:     amountPtr(e.FinalAmount),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type productResponse struct {
	ID       int64  `json:"id"`
	Product  string `json:"product"`
	Quantity int32  `json:"quantity"`
}

func toProductResponses(products []database.EnquiryProduct) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{ID: p.ID, Product: p.Product, Quantity: p.Quantity})
	}
	return out
}

type pickupResponse struct {
	Status       string     `json:"status"`
	AssignedTo   *string    `json:"assigned_to,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CollectedAt  *time.Time `json:"collected_at,omitempty"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
}

func toPickupResponse(p database.PickupDetail) pickupResponse {
	return pickupResponse{
		Status:       p.Status,
		AssignedTo:   textPtr(p.AssignedTo),
		ScheduledFor: timePtr(p.ScheduledFor),
		CollectedAt:  timePtr(p.CollectedAt),
		ReceivedAt:   timePtr(p.ReceivedAt),
	}
}

type serviceDetailResponse struct {
	EstimatedCost        string     `json:"estimated_cost"`
	ActualCost           *string    `json:"actual_cost,omitempty"`
	WorkNotes            *string    `json:"work_notes,omitempty"`
	OverallBeforePhotoID *int64     `json:"overall_before_photo_id,omitempty"`
	OverallAfterPhotoID  *int64     `json:"overall_after_photo_id,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

func toServiceDetailResponse(d database.ServiceDetail) serviceDetailResponse {
	return serviceDetailResponse{
		EstimatedCost:        amount(d.EstimatedCost),
		ActualCost:           amountPtr(d.ActualCost),
		WorkNotes:            textPtr(d.WorkNotes),
		OverallBeforePhotoID: int64Ptr(d.OverallBeforePhotoID),
		OverallAfterPhotoID:  int64Ptr(d.OverallAfterPhotoID),
		CompletedAt:          timePtr(d.CompletedAt),
	}
}

type assignmentResponse struct {
	ID          int64      `json:"id"`
	EnquiryID   int64      `json:"enquiry_id"`
	Product     string     `json:"product"`
	ItemIndex   int32      `json:"item_index"`
	ServiceType string     `json:"service_type"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toAssignmentResponse(a database.ServiceTypeAssignment) assignmentResponse {
	return assignmentResponse{
		ID:          a.ID,
		EnquiryID:   a.EnquiryID,
		Product:     a.Product,
		ItemIndex:   a.ItemIndex,
		ServiceType: a.ServiceType,
		Status:      a.Status,
		Notes:       textPtr(a.Notes),
		StartedAt:   timePtr(a.StartedAt),
		CompletedAt: timePtr(a.CompletedAt),
	}
}

func toAssignmentResponses(assignments []database.ServiceTypeAssignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

type photoResponse struct {
	ID        int64     `json:"id"`
	Stage     string    `json:"stage"`
	PhotoType string    `json:"photo_type"`
	PhotoData string    `json:"photo_data"`
	Notes     *string   `json:"notes,omitempty"`
	Product   *string   `json:"product,omitempty"`
	ItemIndex *int32    `json:"item_index,omitempty"`
	SlotIndex *int32    `json:"slot_index,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toPhotoResponse(p database.Photo) photoResponse {
	return photoResponse{
		ID:        p.ID,
		Stage:     p.Stage,
		PhotoType: p.PhotoType,
		PhotoData: p.PhotoData,
		Notes:     textPtr(p.Notes),
		Product:   textPtr(p.Product),
		ItemIndex: int32Ptr(p.ItemIndex),
		SlotIndex: int32Ptr(p.SlotIndex),
		CreatedAt: p.CreatedAt,
	}
}

func toPhotoBuckets(buckets map[string][]database.Photo) map[string][]photoResponse {
	out := make(map[string][]photoResponse, len(buckets))
	for bucket, photos := range buckets {
		list := make([]photoResponse, 0, len(photos))
		for _, p := range photos {
			list = append(list, toPhotoResponse(p))
		}
		out[bucket] = list
	}
	return out
}

type billingItemResponse struct {
	ID              int64  `json:"id"`
	ServiceType     string `json:"service_type"`
	Product         string `json:"product"`
	ItemIndex       int32  `json:"item_index"`
	OriginalAmount  string `json:"original_amount"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	GstPercent      string `json:"gst_percent"`
	GstAmount       string `json:"gst_amount"`
	FinalAmount     string `json:"final_amount"`
}

func toBillingItemResponses(items []database.BillingItem) []billingItemResponse {
	out := make([]billingItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, billingItemResponse{
			ID:              i.ID,
			ServiceType:     i.ServiceType,
			Product:         i.Product,
			ItemIndex:       i.ItemIndex,
			OriginalAmount:  amount(i.OriginalAmount),
			DiscountPercent: amount(i.DiscountPercent),
			DiscountAmount:  amount(i.DiscountAmount),
			GstPercent:      amount(i.GstPercent),
			GstAmount:       amount(i.GstAmount),
			FinalAmount:     amount(i.FinalAmount),
		})
	}
	return out
}

type billingResponse struct {
	ID            int64                 `json:"id"`
	EnquiryID     int64                 `json:"enquiry_id"`
	InvoiceNumber string                `json:"invoice_number"`
	InvoiceDate   time.Time             `json:"invoice_date"`
	GstIncluded   bool                  `json:"gst_included"`
	Subtotal      string                `json:"subtotal"`
	GstAmount     string                `json:"gst_amount"`
	TotalAmount   string                `json:"total_amount"`
	Notes         *string               `json:"notes,omitempty"`
	Items         []billingItemResponse `json:"items"`
}

func toBillingResponse(d database.BillingDetail, items []database.BillingItem) billingResponse {
	return billingResponse{
		ID:            d.ID,
		EnquiryID:     d.EnquiryID,
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate,
		GstIncluded:   d.GstIncluded,
		Subtotal:      amount(d.Subtotal),
		GstAmount:     amount(d.GstAmount),
		TotalAmount:   amount(d.TotalAmount),
		Notes:         textPtr(d.Notes),
		Items:         toBillingItemResponses(items),
	}
}

type deliveryResponse struct {
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	ProofPhotoID *int64     `json:"proof_photo_id,omitempty"`
	ReceivedBy   *string    `json:"received_by,omitempty"`
	Signature    *string    `json:"signature,omitempty"`
}

func toDeliveryResponse(d database.DeliveryDetail) deliveryResponse {
	return deliveryResponse{
		Status:       d.Status,
		ScheduledFor: timePtr(d.ScheduledFor),
		DeliveredAt:  timePtr(d.DeliveredAt),
		ProofPhotoID: int64Ptr(d.ProofPhotoID),
		ReceivedBy:   textPtr(d.ReceivedBy),
		Signature:    textPtr(d.Signature),
	}
}
