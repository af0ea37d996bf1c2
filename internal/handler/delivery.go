package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/service"
)

// DeliveryWorkflow is the slice of the workflow service the delivery
// handler needs.
type DeliveryWorkflow interface {
	MoveToDelivery(ctx context.Context, enquiryID int64) (database.Enquiry, error)
	MarkOutForDelivery(ctx context.Context, req service.MarkOutForDeliveryRequest) (database.DeliveryDetail, error)
	CompleteDelivery(ctx context.Context, req service.CompleteDeliveryRequest) (database.Enquiry, error)
}

type DeliveryHandler struct {
	workflow DeliveryWorkflow
}

func NewDeliveryHandler(workflow DeliveryWorkflow) *DeliveryHandler {
	return &DeliveryHandler{workflow: workflow}
}

func (h *DeliveryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Schedule)
	r.Post("/out", h.MarkOut)
	r.Post("/complete", h.Complete)
}

func (h *DeliveryHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	enquiry, err := h.workflow.MoveToDelivery(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnquiryResponse(enquiry))
}

type outForDeliveryRequest struct {
	ScheduledFor string `json:"scheduled_for"`
}

func (h *DeliveryHandler) MarkOut(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req outForDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.workflow.MarkOutForDelivery(r.Context(), service.MarkOutForDeliveryRequest{
		EnquiryID:    id,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeliveryResponse(detail))
}

type completeDeliveryRequest struct {
	ProofPhoto string `json:"proof_photo"`
	Signature  string `json:"signature"`
	ReceivedBy string `json:"received_by"`
}

func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req completeDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enquiry, err := h.workflow.CompleteDelivery(r.Context(), service.CompleteDeliveryRequest{
		EnquiryID:  id,
		ProofPhoto: req.ProofPhoto,
		Signature:  req.Signature,
		ReceivedBy: req.ReceivedBy,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnquiryResponse(enquiry))
}
