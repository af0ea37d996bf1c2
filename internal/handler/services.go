package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/service"
)

// ServiceAssignments is the slice of the assignment service the
// services handler needs.
type ServiceAssignments interface {
	AssignServices(ctx context.Context, req service.AssignServicesRequest) ([]database.ServiceTypeAssignment, error)
	ListAssignments(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error)
	StartService(ctx context.Context, req service.StartServiceRequest) (database.ServiceTypeAssignment, error)
	CompleteService(ctx context.Context, req service.CompleteServiceRequest) (database.ServiceTypeAssignment, error)
	SaveOverallBeforePhoto(ctx context.Context, req service.OverallPhotoRequest) (database.ServiceDetail, error)
	SaveFinalPhoto(ctx context.Context, req service.OverallPhotoRequest) (database.ServiceDetail, error)
}

// ServiceWorkflow closes the service stage.
type ServiceWorkflow interface {
	CompleteServiceWorkflow(ctx context.Context, req service.CompleteServiceWorkflowRequest) (database.Enquiry, error)
}

type ServiceHandler struct {
	assignments ServiceAssignments
	workflow    ServiceWorkflow
}

func NewServiceHandler(assignments ServiceAssignments, workflow ServiceWorkflow) *ServiceHandler {
	return &ServiceHandler{assignments: assignments, workflow: workflow}
}

// RegisterEnquiryRoutes mounts the enquiry-scoped service endpoints.
func (h *ServiceHandler) RegisterEnquiryRoutes(r chi.Router) {
	r.Post("/assignments", h.Assign)
	r.Get("/assignments", h.ListAssignments)
	r.Post("/photos/before", h.SaveBeforePhoto)
	r.Post("/photos/after", h.SaveFinalPhoto)
	r.Post("/complete", h.CompleteWorkflow)
}

// RegisterAssignmentRoutes mounts the per-assignment endpoints.
func (h *ServiceHandler) RegisterAssignmentRoutes(r chi.Router) {
	r.Post("/start", h.Start)
	r.Post("/complete", h.Complete)
}

type assignServicesRequest struct {
	Product      string   `json:"product"`
	ItemIndex    int32    `json:"item_index"`
	ServiceTypes []string `json:"service_types"`
}

func (h *ServiceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req assignServicesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignments, err := h.assignments.AssignServices(r.Context(), service.AssignServicesRequest{
		EnquiryID:    id,
		Product:      req.Product,
		ItemIndex:    req.ItemIndex,
		ServiceTypes: req.ServiceTypes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": toAssignmentResponses(assignments)})
}

func (h *ServiceHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	assignments, err := h.assignments.ListAssignments(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": toAssignmentResponses(assignments)})
}

type startServiceRequest struct {
	BeforePhoto string `json:"before_photo"`
	Notes       string `json:"notes"`
}

func (h *ServiceHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req startServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := h.assignments.StartService(r.Context(), service.StartServiceRequest{
		AssignmentID: id,
		BeforePhoto:  req.BeforePhoto,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

type completeServiceRequest struct {
	AfterPhoto string `json:"after_photo"`
	Notes      string `json:"notes"`
}

func (h *ServiceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req completeServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := h.assignments.CompleteService(r.Context(), service.CompleteServiceRequest{
		AssignmentID: id,
		AfterPhoto:   req.AfterPhoto,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

type overallPhotoRequest struct {
	Photo string `json:"photo"`
	Notes string `json:"notes"`
}

func (h *ServiceHandler) SaveBeforePhoto(w http.ResponseWriter, r *http.Request) {
	h.saveOverallPhoto(w, r, h.assignments.SaveOverallBeforePhoto)
}

func (h *ServiceHandler) SaveFinalPhoto(w http.ResponseWriter, r *http.Request) {
	h.saveOverallPhoto(w, r, h.assignments.SaveFinalPhoto)
}

func (h *ServiceHandler) saveOverallPhoto(w http.ResponseWriter, r *http.Request, save func(context.Context, service.OverallPhotoRequest) (database.ServiceDetail, error)) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req overallPhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := save(r.Context(), service.OverallPhotoRequest{
		EnquiryID: id,
		Photo:     req.Photo,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceDetailResponse(detail))
}

type completeWorkflowRequest struct {
	ActualCost string `json:"actual_cost"`
	WorkNotes  string `json:"work_notes"`
}

func (h *ServiceHandler) CompleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}
	var req completeWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enquiry, err := h.workflow.CompleteServiceWorkflow(r.Context(), service.CompleteServiceWorkflowRequest{
		EnquiryID:  id,
		ActualCost: req.ActualCost,
		WorkNotes:  req.WorkNotes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnquiryResponse(enquiry))
}
