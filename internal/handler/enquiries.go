package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/service"
)

// EnquiryWorkflow is the slice of the workflow service the enquiry
// handler needs.
type EnquiryWorkflow interface {
	CreateEnquiry(ctx context.Context, req service.CreateEnquiryRequest) (*service.CreateEnquiryResult, error)
	DeleteEnquiry(ctx context.Context, enquiryID int64) error
}

// JobReads is the read side behind GET endpoints.
type JobReads interface {
	GetJobAggregate(ctx context.Context, enquiryID int64) (*service.JobAggregate, error)
	ListJobs(ctx context.Context, req service.ListJobsRequest) ([]database.Enquiry, error)
}

type EnquiryHandler struct {
	workflow EnquiryWorkflow
	jobs     JobReads
}

func NewEnquiryHandler(workflow EnquiryWorkflow, jobs JobReads) *EnquiryHandler {
	return &EnquiryHandler{workflow: workflow, jobs: jobs}
}

func (h *EnquiryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

type createEnquiryRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	QuotedAmount    string `json:"quoted_amount"`
	Products        []struct {
		Product  string `json:"product"`
		Quantity int32  `json:"quantity"`
	} `json:"products"`
}

type createEnquiryResponse struct {
	Enquiry  enquiryResponse   `json:"enquiry"`
	Products []productResponse `json:"products"`
}

func (h *EnquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnquiryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	products := make([]service.CreateEnquiryProductRequest, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, service.CreateEnquiryProductRequest{
			Product:  p.Product,
			Quantity: p.Quantity,
		})
	}

	result, err := h.workflow.CreateEnquiry(r.Context(), service.CreateEnquiryRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		QuotedAmount:    req.QuotedAmount,
		Products:        products,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createEnquiryResponse{
		Enquiry:  toEnquiryResponse(result.Enquiry),
		Products: toProductResponses(result.Products),
	})
}

func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 32)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 32)

	enquiries, err := h.jobs.ListJobs(r.Context(), service.ListJobsRequest{
		Stage:  q.Get("stage"),
		Search: q.Get("search"),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]enquiryResponse, 0, len(enquiries))
	for _, e := range enquiries {
		out = append(out, toEnquiryResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"enquiries": out})
}

type jobAggregateResponse struct {
	Enquiry     enquiryResponse            `json:"enquiry"`
	Products    []productResponse          `json:"products"`
	Pickup      *pickupResponse            `json:"pickup,omitempty"`
	Service     *serviceDetailResponse     `json:"service,omitempty"`
	Assignments []jobAssignmentResponse    `json:"assignments"`
	Billing     *billingResponse           `json:"billing,omitempty"`
	Delivery    *deliveryResponse          `json:"delivery,omitempty"`
	Photos      map[string][]photoResponse `json:"photos"`
}

type jobAssignmentResponse struct {
	assignmentResponse
	Photos map[string][]photoResponse `json:"photos"`
}

func (h *EnquiryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	agg, err := h.jobs.GetJobAggregate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := jobAggregateResponse{
		Enquiry:     toEnquiryResponse(agg.Enquiry),
		Products:    toProductResponses(agg.Products),
		Assignments: make([]jobAssignmentResponse, 0, len(agg.Assignments)),
		Photos:      toPhotoBuckets(agg.Photos),
	}
	if agg.Pickup != nil {
		p := toPickupResponse(*agg.Pickup)
		resp.Pickup = &p
	}
	if agg.Service != nil {
		s := toServiceDetailResponse(*agg.Service)
		resp.Service = &s
	}
	if agg.Billing != nil {
		b := toBillingResponse(*agg.Billing, agg.BillingItems)
		resp.Billing = &b
	}
	if agg.Delivery != nil {
		d := toDeliveryResponse(*agg.Delivery)
		resp.Delivery = &d
	}
	for _, a := range agg.Assignments {
		resp.Assignments = append(resp.Assignments, jobAssignmentResponse{
			assignmentResponse: toAssignmentResponse(a.Assignment),
			Photos:             toPhotoBuckets(a.Photos),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enquiry id")
		return
	}

	if err := h.workflow.DeleteEnquiry(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
