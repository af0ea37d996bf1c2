package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
)

// JobStore defines the read methods behind the job aggregate.
type JobStore interface {
	GetEnquiry(ctx context.Context, id int64) (database.Enquiry, error)
	ListEnquiriesByStage(ctx context.Context, arg database.ListEnquiriesByStageParams) ([]database.Enquiry, error)
	ListEnquiryProducts(ctx context.Context, enquiryID int64) ([]database.EnquiryProduct, error)
	GetPickupDetail(ctx context.Context, enquiryID int64) (database.PickupDetail, error)
	GetServiceDetail(ctx context.Context, enquiryID int64) (database.ServiceDetail, error)
	ListAssignmentsByEnquiry(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error)
	GetBillingByEnquiry(ctx context.Context, enquiryID int64) (database.BillingDetail, error)
	ListBillingItems(ctx context.Context, billingID int64) ([]database.BillingItem, error)
	GetDeliveryDetail(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error)
	ListPhotosByEnquiry(ctx context.Context, enquiryID int64) ([]database.Photo, error)
}

// JobReader assembles the full read model for one job. Reads run
// without a transaction; a stale sub-read only shows data the next
// refresh corrects.
type JobReader struct {
	store JobStore
}

func NewJobReader(store JobStore) *JobReader {
	return &JobReader{store: store}
}

// AssignmentView is one assignment with the photos linked to it,
// grouped into buckets.
type AssignmentView struct {
	Assignment database.ServiceTypeAssignment
	Photos     map[string][]database.Photo
}

// JobAggregate is everything known about one job. Sub-objects for
// stages the job has not reached yet are nil, never zero structs.
type JobAggregate struct {
	Enquiry      database.Enquiry
	Products     []database.EnquiryProduct
	Pickup       *database.PickupDetail
	Service      *database.ServiceDetail
	Assignments  []AssignmentView
	Billing      *database.BillingDetail
	BillingItems []database.BillingItem
	Delivery     *database.DeliveryDetail
	Photos       map[string][]database.Photo
}

// GetJobAggregate loads the enquiry with every stage detail that
// exists so far. Missing sub-records are tolerated; a missing enquiry
// is not.
func (r *JobReader) GetJobAggregate(ctx context.Context, enquiryID int64) (*JobAggregate, error) {
	enquiry, err := r.store.GetEnquiry(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}

	agg := &JobAggregate{Enquiry: enquiry}

	agg.Products, err = r.store.ListEnquiryProducts(ctx, enquiryID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if pickup, err := r.store.GetPickupDetail(ctx, enquiryID); err == nil {
		agg.Pickup = &pickup
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get pickup details: %w", err)
	}

	if detail, err := r.store.GetServiceDetail(ctx, enquiryID); err == nil {
		agg.Service = &detail
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get service details: %w", err)
	}

	assignments, err := r.store.ListAssignmentsByEnquiry(ctx, enquiryID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	if billing, err := r.store.GetBillingByEnquiry(ctx, enquiryID); err == nil {
		agg.Billing = &billing
		agg.BillingItems, err = r.store.ListBillingItems(ctx, billing.ID)
		if err != nil {
			return nil, fmt.Errorf("list billing items: %w", err)
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get billing: %w", err)
	}

	if delivery, err := r.store.GetDeliveryDetail(ctx, enquiryID); err == nil {
		agg.Delivery = &delivery
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get delivery details: %w", err)
	}

	photos, err := r.store.ListPhotosByEnquiry(ctx, enquiryID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	agg.Photos = bucketPhotos(photos)
	agg.Assignments = attachAssignmentPhotos(assignments, photos)
	return agg, nil
}

type ListJobsRequest struct {
	Stage  string // optional filter
	Search string // optional; matches name, phone, or tracking code
	Limit  int32
	Offset int32
}

// ListJobs pages through enquiries, optionally filtered by stage and
// a free-text customer search.
func (r *JobReader) ListJobs(ctx context.Context, req ListJobsRequest) ([]database.Enquiry, error) {
	if req.Stage != "" && !validStage(req.Stage) {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrStageMismatch, req.Stage)
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	stage := pgtype.Text{}
	if req.Stage != "" {
		stage = pgtype.Text{String: req.Stage, Valid: true}
	}
	search := pgtype.Text{}
	if req.Search != "" {
		search = pgtype.Text{String: req.Search, Valid: true}
	}

	return r.store.ListEnquiriesByStage(ctx, database.ListEnquiriesByStageParams{
		Stage:  stage,
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
}

func validStage(stage string) bool {
	switch stage {
	case enum.StageEnquiry, enum.StagePickup, enum.StageService,
		enum.StageBilling, enum.StageDelivery, enum.StageCompleted:
		return true
	}
	return false
}

// bucketFor maps a stored (stage, photo_type) pair to its read-model
// bucket. Unknown combinations land in "other" rather than erroring:
// the photo store is append-only and old rows must keep rendering.
func bucketFor(stage, photoType string) string {
	switch {
	case stage == enum.PhotoStagePickup && photoType == enum.PhotoTypeBefore:
		return enum.PhotoBucketBefore
	case stage == enum.PhotoStagePickup && photoType == enum.PhotoTypeAfter:
		return enum.PhotoBucketReceived
	case stage == enum.PhotoStageService && photoType == enum.PhotoTypeBefore:
		return enum.PhotoBucketBefore
	case stage == enum.PhotoStageService && photoType == enum.PhotoTypeAfter:
		return enum.PhotoBucketAfter
	}
	return enum.PhotoBucketOther
}

func bucketPhotos(photos []database.Photo) map[string][]database.Photo {
	buckets := make(map[string][]database.Photo)
	for _, p := range photos {
		bucket := bucketFor(p.Stage, p.PhotoType)
		buckets[bucket] = append(buckets[bucket], p)
	}
	return buckets
}

func attachAssignmentPhotos(assignments []database.ServiceTypeAssignment, photos []database.Photo) []AssignmentView {
	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		view := AssignmentView{Assignment: a, Photos: make(map[string][]database.Photo)}
		for _, p := range photos {
			if p.ServiceTypeID.Valid && p.ServiceTypeID.Int64 == a.ID {
				bucket := bucketFor(p.Stage, p.PhotoType)
				view.Photos[bucket] = append(view.Photos[bucket], p)
			}
		}
		views = append(views, view)
	}
	return views
}
