package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/service"
)

// PickupWorkflow is the slice of the workflow service the pickup
// handler needs.
type PickupWorkflow interface {
	SchedulePickup(ctx context.Context, req service.SchedulePickupRequest) (database.Enquiry, error)
	AssignPickup(ctx context.Context, req service.AssignPickupRequest) (database.PickupDetail, error)
	MarkCollected(ctx context.Context, enquiryID int64) (database.PickupDetail, error)
	ReceiveItems(ctx context.Context, req service.ReceiveItemsRequest) (database.Enquiry, error)
}

type PickupHandler struct {
	workflow PickupWorkflow
}

func NewPickupHandler(workflow PickupWorkflow) *PickupHandler {
	return &PickupHandler{workflow: workflow}
}

func (h *PickupHandler) RegisterRoutes(r chi.Router) {
	r.Post("/schedule", h.Schedule)
	r.Post("/assign", h.Assign)
	r.Post("/collected", h.MarkCollected)
	r.Post("/receive", h.ReceiveItems)
}

type schedulePickupRequest struct {
	ScheduledFor string `json:"scheduled_for"`
	AssignedTo   string `json:"assigned_to"`
}

func (h *PickupHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req schedulePickupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enquiry, err := h.workflow.SchedulePickup(r.Context(), service.SchedulePickupRequest{
		EnquiryID:    id,
		ScheduledFor: req.ScheduledFor,
		AssignedTo:   req.AssignedTo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnquiryResponse(enquiry))
}

type assignPickupRequest struct {
	AssignedTo   string `json:"assigned_to"`
	ScheduledFor string `json:"scheduled_for"`
}

func (h *PickupHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req assignPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.workflow.AssignPickup(r.Context(), service.AssignPickupRequest{
		EnquiryID:    id,
		AssignedTo:   req.AssignedTo,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPickupResponse(detail))
}

func (h *PickupHandler) MarkCollected(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	detail, err := h.workflow.MarkCollected(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPickupResponse(detail))
}

type receiveItemsRequest struct {
	EstimatedCost string `json:"estimated_cost"`
	Items         []struct {
		Product   string   `json:"product"`
		ItemIndex int32    `json:"item_index"`
		Photos    []string `json:"photos"`
		Notes     string   `json:"notes"`
	} `json:"items"`
}

func (h *PickupHandler) ReceiveItems(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req receiveItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.ReceivedItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.ReceivedItemRequest{
			Product:   item.Product,
			ItemIndex: item.ItemIndex,
			Photos:    item.Photos,
			Notes:     item.Notes,
		})
	}

	enquiry, err := h.workflow.ReceiveItems(r.Context(), service.ReceiveItemsRequest{
		EnquiryID:     id,
		EstimatedCost: req.EstimatedCost,
		Items:         items,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnquiryResponse(enquiry))
}
