package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
	"github.com/soleserve/api/internal/notify"
)

// ItemKey addresses one physical unit within an enquiry's products by
// structural equality; never by a formatted string.
type ItemKey struct {
	Product   string
	ItemIndex int32
}

// WorkflowStore defines the DB methods needed for stage transitions.
// Satisfied by *database.Queries (and its WithTx variant).
type WorkflowStore interface {
	CreateEnquiry(ctx context.Context, arg database.CreateEnquiryParams) (database.Enquiry, error)
	CreateEnquiryProduct(ctx context.Context, arg database.CreateEnquiryProductParams) (database.EnquiryProduct, error)
	GetEnquiryForUpdate(ctx context.Context, id int64) (database.Enquiry, error)
	GetEnquiryProduct(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error)
	UpdateEnquiryStage(ctx context.Context, arg database.UpdateEnquiryStageParams) (database.Enquiry, error)
	UpdateEnquiryFinalAmount(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error)
	GetPickupDetail(ctx context.Context, enquiryID int64) (database.PickupDetail, error)
	UpsertPickupDetail(ctx context.Context, arg database.UpsertPickupDetailParams) (database.PickupDetail, error)
	CreateServiceDetailIfAbsent(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error
	GetServiceDetail(ctx context.Context, enquiryID int64) (database.ServiceDetail, error)
	CompleteServiceDetail(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error)
	CountUnfinishedAssignments(ctx context.Context, enquiryID int64) (int64, error)
	GetBillingByEnquiry(ctx context.Context, enquiryID int64) (database.BillingDetail, error)
	GetDeliveryDetail(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error)
	UpsertDeliveryDetail(ctx context.Context, arg database.UpsertDeliveryDetailParams) (database.DeliveryDetail, error)
	CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error)
	CountItemPhotos(ctx context.Context, arg database.CountItemPhotosParams) (int64, error)
	DeleteEnquiry(ctx context.Context, id int64) (int64, error)
}

// NewWorkflowStore creates a WorkflowStore from a DBTX (pool or tx).
type NewWorkflowStore func(db database.DBTX) WorkflowStore

// WorkflowService owns every current_stage transition. Each operation
// runs in one transaction: the enquiry row is locked first, all side
// effects land with the stage update, and the customer notification
// fires only after commit.
type WorkflowService struct {
	pool     TxBeginner
	newStore NewWorkflowStore
	notifier notify.Notifier
}

func NewWorkflowService(pool TxBeginner, newStore NewWorkflowStore, notifier notify.Notifier) *WorkflowService {
	return &WorkflowService{pool: pool, newStore: newStore, notifier: notifier}
}

var pickupStatusRank = map[string]int{
	enum.PickupStatusScheduled: 1,
	enum.PickupStatusAssigned:  2,
	enum.PickupStatusCollected: 3,
	enum.PickupStatusReceived:  4,
}

// --- Intake ---

type CreateEnquiryRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	QuotedAmount    string
	Products        []CreateEnquiryProductRequest
}

type CreateEnquiryProductRequest struct {
	Product  string
	Quantity int32
}

type CreateEnquiryResult struct {
	Enquiry  database.Enquiry
	Products []database.EnquiryProduct
}

// CreateEnquiry registers a new enquiry at stage "enquiry" together
// with its product items.
func (s *WorkflowService) CreateEnquiry(ctx context.Context, req CreateEnquiryRequest) (*CreateEnquiryResult, error) {
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, ErrCustomerRequired
	}
	if len(req.Products) == 0 {
		return nil, ErrNoProducts
	}
	seen := make(map[string]bool, len(req.Products))
	for i, p := range req.Products {
		if p.Product == "" {
			return nil, fmt.Errorf("products[%d]: %w", i, ErrNoProducts)
		}
		if p.Quantity <= 0 {
			return nil, fmt.Errorf("products[%d]: %w", i, ErrInvalidQuantity)
		}
		if seen[p.Product] {
			return nil, fmt.Errorf("products[%d]: %w", i, ErrDuplicateItem)
		}
		seen[p.Product] = true
	}

	quoted := pgtype.Numeric{}
	if req.QuotedAmount != "" {
		d, err := decimal.NewFromString(req.QuotedAmount)
		if err != nil || d.IsNegative() {
			return nil, ErrInvalidAmount
		}
		quoted = decimalToNumeric(d)
	}

	address := pgtype.Text{}
	if req.CustomerAddress != "" {
		address = pgtype.Text{String: req.CustomerAddress, Valid: true}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := store.CreateEnquiry(ctx, database.CreateEnquiryParams{
		TrackingCode:    uuid.New(),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: address,
		QuotedAmount:    quoted,
	})
	if err != nil {
		return nil, fmt.Errorf("create enquiry: %w", err)
	}

	products := make([]database.EnquiryProduct, 0, len(req.Products))
	for _, p := range req.Products {
		product, err := store.CreateEnquiryProduct(ctx, database.CreateEnquiryProductParams{
			EnquiryID: enquiry.ID,
			Product:   p.Product,
			Quantity:  p.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("create enquiry product: %w", err)
		}
		products = append(products, product)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateEnquiryResult{Enquiry: enquiry, Products: products}, nil
}

// --- Pickup lifecycle ---

type SchedulePickupRequest struct {
	EnquiryID    int64
	ScheduledFor string // RFC3339, optional
	AssignedTo   string // optional; scheduling with an assignee lands on "assigned"
}

// SchedulePickup moves an enquiry from the enquiry stage into pickup
// and lazily creates its pickup details.
func (s *WorkflowService) SchedulePickup(ctx context.Context, req SchedulePickupRequest) (database.Enquiry, error) {
	scheduledFor, err := parseOptionalTime(req.ScheduledFor)
	if err != nil {
		return database.Enquiry{}, ErrInvalidSchedule
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StageEnquiry)
	if err != nil {
		return database.Enquiry{}, err
	}

	status := enum.PickupStatusScheduled
	assignedTo := pgtype.Text{}
	if req.AssignedTo != "" {
		status = enum.PickupStatusAssigned
		assignedTo = pgtype.Text{String: req.AssignedTo, Valid: true}
	}

	if _, err := store.UpsertPickupDetail(ctx, database.UpsertPickupDetailParams{
		EnquiryID:    req.EnquiryID,
		Status:       status,
		AssignedTo:   assignedTo,
		ScheduledFor: scheduledFor,
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("upsert pickup details: %w", err)
	}

	updated, err := advanceStage(ctx, store, enquiry, enum.StagePickup)
	if err != nil {
		return database.Enquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Enquiry{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyStage(updated)
	return updated, nil
}

type AssignPickupRequest struct {
	EnquiryID    int64
	AssignedTo   string
	ScheduledFor string // RFC3339, optional
}

// AssignPickup records the staff member collecting the items. Pickup
// status is monotonic; assigning after collection is rejected.
func (s *WorkflowService) AssignPickup(ctx context.Context, req AssignPickupRequest) (database.PickupDetail, error) {
	if req.AssignedTo == "" {
		return database.PickupDetail{}, ErrAssigneeRequired
	}
	scheduledFor, err := parseOptionalTime(req.ScheduledFor)
	if err != nil {
		return database.PickupDetail{}, ErrInvalidSchedule
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.PickupDetail{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StagePickup); err != nil {
		return database.PickupDetail{}, err
	}

	if err := checkPickupMonotonic(ctx, store, req.EnquiryID, enum.PickupStatusAssigned); err != nil {
		return database.PickupDetail{}, err
	}

	detail, err := store.UpsertPickupDetail(ctx, database.UpsertPickupDetailParams{
		EnquiryID:    req.EnquiryID,
		Status:       enum.PickupStatusAssigned,
		AssignedTo:   pgtype.Text{String: req.AssignedTo, Valid: true},
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		return database.PickupDetail{}, fmt.Errorf("upsert pickup details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.PickupDetail{}, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

// MarkCollected records that the assigned staff member has physically
// collected the items from the customer.
func (s *WorkflowService) MarkCollected(ctx context.Context, enquiryID int64) (database.PickupDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.PickupDetail{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := lockEnquiryAtStage(ctx, store, enquiryID, enum.StagePickup); err != nil {
		return database.PickupDetail{}, err
	}

	if _, err := store.GetPickupDetail(ctx, enquiryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.PickupDetail{}, ErrPickupNotScheduled
		}
		return database.PickupDetail{}, fmt.Errorf("get pickup details: %w", err)
	}
	if err := checkPickupMonotonic(ctx, store, enquiryID, enum.PickupStatusCollected); err != nil {
		return database.PickupDetail{}, err
	}

	detail, err := store.UpsertPickupDetail(ctx, database.UpsertPickupDetailParams{
		EnquiryID:   enquiryID,
		Status:      enum.PickupStatusCollected,
		CollectedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		return database.PickupDetail{}, fmt.Errorf("upsert pickup details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.PickupDetail{}, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

// --- Receive items (pickup -> service) ---

type ReceiveItemsRequest struct {
	EnquiryID     int64
	EstimatedCost string // optional; falls back to the quoted amount
	Items         []ReceivedItemRequest
}

type ReceivedItemRequest struct {
	Product   string
	ItemIndex int32
	Photos    []string // encoded images, at most 4 per item instance overall
	Notes     string
}

// ReceiveItems records the items arriving at the workshop: writes the
// received-condition photos, marks pickup received, seeds the service
// details, and advances the enquiry into the service stage. All of it
// is one transaction; a retry after success fails the stage guard
// instead of appending photos twice.
func (s *WorkflowService) ReceiveItems(ctx context.Context, req ReceiveItemsRequest) (database.Enquiry, error) {
	if len(req.Items) == 0 {
		return database.Enquiry{}, ErrNoItems
	}
	seen := make(map[ItemKey]bool, len(req.Items))
	for i, item := range req.Items {
		if item.Product == "" {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, ErrNoItems)
		}
		if item.ItemIndex < 1 {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemIndex)
		}
		if len(item.Photos) > enum.MaxItemPhotos {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, ErrPhotoLimitExceeded)
		}
		key := ItemKey{Product: item.Product, ItemIndex: item.ItemIndex}
		if seen[key] {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, ErrDuplicateItem)
		}
		seen[key] = true
	}

	var estimated decimal.Decimal
	estimatedGiven := false
	if req.EstimatedCost != "" {
		d, err := decimal.NewFromString(req.EstimatedCost)
		if err != nil || d.IsNegative() {
			return database.Enquiry{}, ErrInvalidAmount
		}
		estimated = d
		estimatedGiven = true
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StagePickup)
	if err != nil {
		return database.Enquiry{}, err
	}

	for i, item := range req.Items {
		if err := validateItemInstance(ctx, store, req.EnquiryID, item.Product, item.ItemIndex); err != nil {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, err)
		}

		existing, err := store.CountItemPhotos(ctx, database.CountItemPhotosParams{
			EnquiryID: req.EnquiryID,
			Product:   item.Product,
			ItemIndex: item.ItemIndex,
		})
		if err != nil {
			return database.Enquiry{}, fmt.Errorf("items[%d]: count photos: %w", i, err)
		}
		if existing+int64(len(item.Photos)) > enum.MaxItemPhotos {
			return database.Enquiry{}, fmt.Errorf("items[%d]: %w", i, ErrPhotoLimitExceeded)
		}

		notes := pgtype.Text{}
		if item.Notes != "" {
			notes = pgtype.Text{String: item.Notes, Valid: true}
		}
		for j, data := range item.Photos {
			if data == "" {
				return database.Enquiry{}, fmt.Errorf("items[%d].photos[%d]: %w", i, j, ErrPhotoMissing)
			}
			if _, err := store.CreatePhoto(ctx, database.CreatePhotoParams{
				EnquiryID: req.EnquiryID,
				Stage:     enum.PhotoStagePickup,
				PhotoType: enum.PhotoTypeBefore,
				PhotoData: data,
				Notes:     notes,
				Product:   pgtype.Text{String: item.Product, Valid: true},
				ItemIndex: pgtype.Int4{Int32: item.ItemIndex, Valid: true},
				SlotIndex: pgtype.Int4{Int32: int32(existing) + int32(j) + 1, Valid: true},
			}); err != nil {
				return database.Enquiry{}, fmt.Errorf("items[%d].photos[%d]: %w", i, j, err)
			}
		}
	}

	if _, err := store.UpsertPickupDetail(ctx, database.UpsertPickupDetailParams{
		EnquiryID:  req.EnquiryID,
		Status:     enum.PickupStatusReceived,
		ReceivedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("upsert pickup details: %w", err)
	}

	// estimated cost: given value, else quoted amount, else 0
	if !estimatedGiven {
		estimated = numericToDecimal(enquiry.QuotedAmount)
	}
	if err := store.CreateServiceDetailIfAbsent(ctx, database.CreateServiceDetailIfAbsentParams{
		EnquiryID:     req.EnquiryID,
		EstimatedCost: decimalToNumeric(estimated),
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("create service details: %w", err)
	}

	updated, err := advanceStage(ctx, store, enquiry, enum.StageService)
	if err != nil {
		return database.Enquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Enquiry{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyStage(updated)
	return updated, nil
}

// --- Service completion (service -> billing) ---

type CompleteServiceWorkflowRequest struct {
	EnquiryID  int64
	ActualCost string // optional
	WorkNotes  string
}

// CompleteServiceWorkflow closes the service stage. Both guards are
// checked independently so the caller can tell which one blocks.
func (s *WorkflowService) CompleteServiceWorkflow(ctx context.Context, req CompleteServiceWorkflowRequest) (database.Enquiry, error) {
	actual := pgtype.Numeric{}
	if req.ActualCost != "" {
		d, err := decimal.NewFromString(req.ActualCost)
		if err != nil || d.IsNegative() {
			return database.Enquiry{}, ErrInvalidAmount
		}
		actual = decimalToNumeric(d)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StageService)
	if err != nil {
		return database.Enquiry{}, err
	}

	unfinished, err := store.CountUnfinishedAssignments(ctx, req.EnquiryID)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("count assignments: %w", err)
	}
	if unfinished > 0 {
		return database.Enquiry{}, ErrServicesIncomplete
	}

	detail, err := store.GetServiceDetail(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Enquiry{}, ErrFinalPhotoMissing
		}
		return database.Enquiry{}, fmt.Errorf("get service details: %w", err)
	}
	if !detail.OverallAfterPhotoID.Valid {
		return database.Enquiry{}, ErrFinalPhotoMissing
	}

	workNotes := pgtype.Text{}
	if req.WorkNotes != "" {
		workNotes = pgtype.Text{String: req.WorkNotes, Valid: true}
	}
	if !actual.Valid {
		actual = detail.EstimatedCost
	}
	if _, err := store.CompleteServiceDetail(ctx, database.CompleteServiceDetailParams{
		EnquiryID:  req.EnquiryID,
		ActualCost: actual,
		WorkNotes:  workNotes,
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("complete service details: %w", err)
	}

	updated, err := advanceStage(ctx, store, enquiry, enum.StageBilling)
	if err != nil {
		return database.Enquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Enquiry{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyStage(updated)
	return updated, nil
}

// --- Delivery lifecycle (billing -> delivery -> completed) ---

// MoveToDelivery requires a persisted invoice; it seeds the delivery
// details at "scheduled".
func (s *WorkflowService) MoveToDelivery(ctx context.Context, enquiryID int64) (database.Enquiry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := lockEnquiryAtStage(ctx, store, enquiryID, enum.StageBilling)
	if err != nil {
		return database.Enquiry{}, err
	}

	if _, err := store.GetBillingByEnquiry(ctx, enquiryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Enquiry{}, ErrBillingRequired
		}
		return database.Enquiry{}, fmt.Errorf("get billing: %w", err)
	}

	if _, err := store.UpsertDeliveryDetail(ctx, database.UpsertDeliveryDetailParams{
		EnquiryID: enquiryID,
		Status:    enum.DeliveryStatusScheduled,
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("upsert delivery details: %w", err)
	}

	updated, err := advanceStage(ctx, store, enquiry, enum.StageDelivery)
	if err != nil {
		return database.Enquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Enquiry{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyStage(updated)
	return updated, nil
}

type MarkOutForDeliveryRequest struct {
	EnquiryID    int64
	ScheduledFor string // RFC3339, optional
}

func (s *WorkflowService) MarkOutForDelivery(ctx context.Context, req MarkOutForDeliveryRequest) (database.DeliveryDetail, error) {
	scheduledFor, err := parseOptionalTime(req.ScheduledFor)
	if err != nil {
		return database.DeliveryDetail{}, ErrInvalidSchedule
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DeliveryDetail{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StageDelivery); err != nil {
		return database.DeliveryDetail{}, err
	}

	current, err := store.GetDeliveryDetail(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DeliveryDetail{}, ErrDeliveryStatus
		}
		return database.DeliveryDetail{}, fmt.Errorf("get delivery details: %w", err)
	}
	if current.Status != enum.DeliveryStatusScheduled {
		return database.DeliveryDetail{}, ErrDeliveryStatus
	}

	detail, err := store.UpsertDeliveryDetail(ctx, database.UpsertDeliveryDetailParams{
		EnquiryID:    req.EnquiryID,
		Status:       enum.DeliveryStatusOutForDelivery,
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		return database.DeliveryDetail{}, fmt.Errorf("upsert delivery details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.DeliveryDetail{}, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

type CompleteDeliveryRequest struct {
	EnquiryID  int64
	ProofPhoto string // encoded image, required
	Signature  string
	ReceivedBy string
}

// CompleteDelivery writes the delivery proof and closes the pipeline;
// the enquiry's final amount is stamped from the invoice total.
func (s *WorkflowService) CompleteDelivery(ctx context.Context, req CompleteDeliveryRequest) (database.Enquiry, error) {
	if req.ProofPhoto == "" {
		return database.Enquiry{}, ErrPhotoMissing
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := lockEnquiryAtStage(ctx, store, req.EnquiryID, enum.StageDelivery)
	if err != nil {
		return database.Enquiry{}, err
	}

	current, err := store.GetDeliveryDetail(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Enquiry{}, ErrDeliveryStatus
		}
		return database.Enquiry{}, fmt.Errorf("get delivery details: %w", err)
	}
	if current.Status != enum.DeliveryStatusScheduled && current.Status != enum.DeliveryStatusOutForDelivery {
		return database.Enquiry{}, ErrDeliveryStatus
	}

	photo, err := store.CreatePhoto(ctx, database.CreatePhotoParams{
		EnquiryID: req.EnquiryID,
		Stage:     enum.PhotoStageDelivery,
		PhotoType: enum.PhotoTypeProof,
		PhotoData: req.ProofPhoto,
	})
	if err != nil {
		return database.Enquiry{}, fmt.Errorf("create proof photo: %w", err)
	}

	receivedBy := pgtype.Text{}
	if req.ReceivedBy != "" {
		receivedBy = pgtype.Text{String: req.ReceivedBy, Valid: true}
	}
	signature := pgtype.Text{}
	if req.Signature != "" {
		signature = pgtype.Text{String: req.Signature, Valid: true}
	}
	if _, err := store.UpsertDeliveryDetail(ctx, database.UpsertDeliveryDetailParams{
		EnquiryID:    req.EnquiryID,
		Status:       enum.DeliveryStatusDelivered,
		DeliveredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
		ProofPhotoID: pgtype.Int8{Int64: photo.ID, Valid: true},
		ReceivedBy:   receivedBy,
		Signature:    signature,
	}); err != nil {
		return database.Enquiry{}, fmt.Errorf("upsert delivery details: %w", err)
	}

	if billing, err := store.GetBillingByEnquiry(ctx, req.EnquiryID); err == nil {
		if _, err := store.UpdateEnquiryFinalAmount(ctx, database.UpdateEnquiryFinalAmountParams{
			ID:          req.EnquiryID,
			FinalAmount: billing.TotalAmount,
		}); err != nil {
			return database.Enquiry{}, fmt.Errorf("update final amount: %w", err)
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return database.Enquiry{}, fmt.Errorf("get billing: %w", err)
	}

	updated, err := advanceStage(ctx, store, enquiry, enum.StageCompleted)
	if err != nil {
		return database.Enquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Enquiry{}, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyStage(updated)
	return updated, nil
}

// DeleteEnquiry removes an enquiry that never left intake. Child rows
// cascade at the schema level, but only stage "enquiry" may be deleted;
// anything further along has an audit trail worth keeping.
func (s *WorkflowService) DeleteEnquiry(ctx context.Context, enquiryID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := lockEnquiryAtStage(ctx, store, enquiryID, enum.StageEnquiry); err != nil {
		return err
	}
	affected, err := store.DeleteEnquiry(ctx, enquiryID)
	if err != nil {
		return fmt.Errorf("delete enquiry: %w", err)
	}
	if affected == 0 {
		return ErrEnquiryNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Helpers ---

// lockEnquiryAtStage fetches the enquiry under a row lock and checks
// it sits at the expected stage. ErrNoRows maps to not-found; a stage
// mismatch is reported as such per the error taxonomy.
func lockEnquiryAtStage(ctx context.Context, store WorkflowStore, enquiryID int64, stage string) (database.Enquiry, error) {
	enquiry, err := store.GetEnquiryForUpdate(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Enquiry{}, ErrEnquiryNotFound
		}
		return database.Enquiry{}, fmt.Errorf("get enquiry: %w", err)
	}
	if enquiry.CurrentStage != stage {
		return database.Enquiry{}, fmt.Errorf("%w: at %s, expected %s", ErrStageMismatch, enquiry.CurrentStage, stage)
	}
	return enquiry, nil
}

// advanceStage performs the guarded stage update. The row is already
// locked, so ErrNoRows here means the guard itself is wrong, not a
// race; it is still surfaced rather than swallowed.
func advanceStage(ctx context.Context, store WorkflowStore, enquiry database.Enquiry, next string) (database.Enquiry, error) {
	updated, err := store.UpdateEnquiryStage(ctx, database.UpdateEnquiryStageParams{
		ID:        enquiry.ID,
		Stage:     next,
		FromStage: enquiry.CurrentStage,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Enquiry{}, ErrStageMismatch
		}
		return database.Enquiry{}, fmt.Errorf("update stage: %w", err)
	}
	return updated, nil
}

func validateItemInstance(ctx context.Context, store WorkflowStore, enquiryID int64, product string, itemIndex int32) error {
	p, err := store.GetEnquiryProduct(ctx, database.GetEnquiryProductParams{
		EnquiryID: enquiryID,
		Product:   product,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get enquiry product: %w", err)
	}
	if itemIndex > p.Quantity {
		return ErrItemNotFound
	}
	return nil
}

func checkPickupMonotonic(ctx context.Context, store WorkflowStore, enquiryID int64, next string) error {
	current, err := store.GetPickupDetail(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // lazily created by the upsert
		}
		return fmt.Errorf("get pickup details: %w", err)
	}
	if pickupStatusRank[current.Status] > pickupStatusRank[next] {
		return ErrPickupStatusRegression
	}
	return nil
}

func parseOptionalTime(s string) (pgtype.Timestamptz, error) {
	if s == "" {
		return pgtype.Timestamptz{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return pgtype.Timestamptz{}, err
	}
	return pgtype.Timestamptz{Time: t, Valid: true}, nil
}

func (s *WorkflowService) notifyStage(enquiry database.Enquiry) {
	if s.notifier == nil {
		return
	}
	s.notifier.StageChanged(notify.StageChange{
		EnquiryID:    enquiry.ID,
		TrackingCode: enquiry.TrackingCode.String(),
		CustomerName: enquiry.CustomerName,
		Phone:        enquiry.CustomerPhone,
		Stage:        enquiry.CurrentStage,
	})
}
