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

// AssignmentStore defines the DB methods the assignment service needs.
type AssignmentStore interface {
	GetEnquiry(ctx context.Context, id int64) (database.Enquiry, error)
	GetEnquiryForUpdate(ctx context.Context, id int64) (database.Enquiry, error)
	GetEnquiryProduct(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error)
	CreateServiceDetailIfAbsent(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error
	GetServiceDetail(ctx context.Context, enquiryID int64) (database.ServiceDetail, error)
	SetOverallBeforePhoto(ctx context.Context, arg database.SetOverallBeforePhotoParams) (database.ServiceDetail, error)
	SetOverallAfterPhoto(ctx context.Context, arg database.SetOverallAfterPhotoParams) (database.ServiceDetail, error)
	CreateAssignment(ctx context.Context, arg database.CreateAssignmentParams) (database.ServiceTypeAssignment, error)
	GetAssignmentForUpdate(ctx context.Context, id int64) (database.ServiceTypeAssignment, error)
	ListAssignmentsByEnquiry(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error)
	StartAssignment(ctx context.Context, arg database.StartAssignmentParams) (database.ServiceTypeAssignment, error)
	CompleteAssignment(ctx context.Context, arg database.CompleteAssignmentParams) (database.ServiceTypeAssignment, error)
	CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error)
}

// NewAssignmentStore creates an AssignmentStore from a DBTX.
type NewAssignmentStore func(db database.DBTX) AssignmentStore

// AssignmentService manages the per-item service assignments that run
// inside the service stage. It never touches current_stage; that is
// WorkflowService territory.
type AssignmentService struct {
	pool     TxBeginner
	newStore NewAssignmentStore
}

func NewAssignmentService(pool TxBeginner, newStore NewAssignmentStore) *AssignmentService {
	return &AssignmentService{pool: pool, newStore: newStore}
}

func validServiceType(t string) bool {
	switch t {
	case enum.ServiceTypeRepairing, enum.ServiceTypeCleaning, enum.ServiceTypeDyeing:
		return true
	}
	return false
}

type AssignServicesRequest struct {
	EnquiryID    int64
	Product      string
	ItemIndex    int32
	ServiceTypes []string
}

// AssignServices unions the requested service types onto one item
// instance. Already-assigned types are skipped, never duplicated and
// never reset, so repeating a request is harmless.
func (s *AssignmentService) AssignServices(ctx context.Context, req AssignServicesRequest) ([]database.ServiceTypeAssignment, error) {
	if len(req.ServiceTypes) == 0 {
		return nil, ErrNoServiceTypes
	}
	if req.ItemIndex < 1 {
		return nil, ErrInvalidItemIndex
	}
	for _, t := range req.ServiceTypes {
		if !validServiceType(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidServiceType, t)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := store.GetEnquiryForUpdate(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	if enquiry.CurrentStage != enum.StageService {
		return nil, fmt.Errorf("%w: at %s, expected %s", ErrStageMismatch, enquiry.CurrentStage, enum.StageService)
	}

	product, err := store.GetEnquiryProduct(ctx, database.GetEnquiryProductParams{
		EnquiryID: req.EnquiryID,
		Product:   req.Product,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get enquiry product: %w", err)
	}
	if req.ItemIndex > product.Quantity {
		return nil, ErrItemNotFound
	}

	if err := store.CreateServiceDetailIfAbsent(ctx, database.CreateServiceDetailIfAbsentParams{
		EnquiryID:     req.EnquiryID,
		EstimatedCost: enquiry.QuotedAmount,
	}); err != nil {
		return nil, fmt.Errorf("create service details: %w", err)
	}

	for _, t := range req.ServiceTypes {
		_, err := store.CreateAssignment(ctx, database.CreateAssignmentParams{
			EnquiryID:   req.EnquiryID,
			Product:     req.Product,
			ItemIndex:   req.ItemIndex,
			ServiceType: t,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // already assigned
			}
			return nil, fmt.Errorf("create assignment: %w", err)
		}
	}

	assignments, err := store.ListAssignmentsByEnquiry(ctx, req.EnquiryID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return assignments, nil
}

type StartServiceRequest struct {
	AssignmentID int64
	BeforePhoto  string // encoded image, optional
	Notes        string
}

// StartService moves a pending assignment to in-progress, optionally
// recording a pre-work photo linked to it.
func (s *AssignmentService) StartService(ctx context.Context, req StartServiceRequest) (database.ServiceTypeAssignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.ServiceTypeAssignment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := lockAssignment(ctx, store, req.AssignmentID)
	if err != nil {
		return database.ServiceTypeAssignment{}, err
	}
	if current.Status != enum.AssignmentStatusPending {
		return database.ServiceTypeAssignment{}, ErrAssignmentNotPending
	}

	if req.BeforePhoto != "" {
		if _, err := store.CreatePhoto(ctx, database.CreatePhotoParams{
			EnquiryID:     current.EnquiryID,
			Stage:         enum.PhotoStageService,
			PhotoType:     enum.PhotoTypeBefore,
			PhotoData:     req.BeforePhoto,
			ServiceTypeID: pgtype.Int8{Int64: current.ID, Valid: true},
			Product:       pgtype.Text{String: current.Product, Valid: true},
			ItemIndex:     pgtype.Int4{Int32: current.ItemIndex, Valid: true},
		}); err != nil {
			return database.ServiceTypeAssignment{}, fmt.Errorf("create photo: %w", err)
		}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	updated, err := store.StartAssignment(ctx, database.StartAssignmentParams{ID: req.AssignmentID, Notes: notes})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ServiceTypeAssignment{}, ErrAssignmentNotPending
		}
		return database.ServiceTypeAssignment{}, fmt.Errorf("start assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.ServiceTypeAssignment{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

type CompleteServiceRequest struct {
	AssignmentID int64
	AfterPhoto   string // encoded image, required
	Notes        string
}

// CompleteService moves an in-progress assignment to done. The
// after-work photo is mandatory; the status update and the photo land
// in the same transaction.
func (s *AssignmentService) CompleteService(ctx context.Context, req CompleteServiceRequest) (database.ServiceTypeAssignment, error) {
	if req.AfterPhoto == "" {
		return database.ServiceTypeAssignment{}, ErrPhotoMissing
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.ServiceTypeAssignment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := lockAssignment(ctx, store, req.AssignmentID)
	if err != nil {
		return database.ServiceTypeAssignment{}, err
	}
	if current.Status != enum.AssignmentStatusInProgress {
		return database.ServiceTypeAssignment{}, ErrAssignmentNotInProgress
	}

	if _, err := store.CreatePhoto(ctx, database.CreatePhotoParams{
		EnquiryID:     current.EnquiryID,
		Stage:         enum.PhotoStageService,
		PhotoType:     enum.PhotoTypeAfter,
		PhotoData:     req.AfterPhoto,
		ServiceTypeID: pgtype.Int8{Int64: current.ID, Valid: true},
		Product:       pgtype.Text{String: current.Product, Valid: true},
		ItemIndex:     pgtype.Int4{Int32: current.ItemIndex, Valid: true},
	}); err != nil {
		return database.ServiceTypeAssignment{}, fmt.Errorf("create photo: %w", err)
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	updated, err := store.CompleteAssignment(ctx, database.CompleteAssignmentParams{ID: req.AssignmentID, Notes: notes})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ServiceTypeAssignment{}, ErrAssignmentNotInProgress
		}
		return database.ServiceTypeAssignment{}, fmt.Errorf("complete assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.ServiceTypeAssignment{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

type OverallPhotoRequest struct {
	EnquiryID int64
	Photo     string // encoded image, required
	Notes     string
}

// SaveOverallBeforePhoto stores the across-items "before" shot taken
// when work begins and links it on the service details.
func (s *AssignmentService) SaveOverallBeforePhoto(ctx context.Context, req OverallPhotoRequest) (database.ServiceDetail, error) {
	return s.saveOverallPhoto(ctx, req, enum.PhotoTypeBefore)
}

// SaveFinalPhoto stores the across-items "after" shot whose presence
// gates service completion.
func (s *AssignmentService) SaveFinalPhoto(ctx context.Context, req OverallPhotoRequest) (database.ServiceDetail, error) {
	return s.saveOverallPhoto(ctx, req, enum.PhotoTypeAfter)
}

func (s *AssignmentService) saveOverallPhoto(ctx context.Context, req OverallPhotoRequest, photoType string) (database.ServiceDetail, error) {
	if req.Photo == "" {
		return database.ServiceDetail{}, ErrPhotoMissing
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.ServiceDetail{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := store.GetEnquiryForUpdate(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ServiceDetail{}, ErrEnquiryNotFound
		}
		return database.ServiceDetail{}, fmt.Errorf("get enquiry: %w", err)
	}
	if enquiry.CurrentStage != enum.StageService {
		return database.ServiceDetail{}, fmt.Errorf("%w: at %s, expected %s", ErrStageMismatch, enquiry.CurrentStage, enum.StageService)
	}

	if err := store.CreateServiceDetailIfAbsent(ctx, database.CreateServiceDetailIfAbsentParams{
		EnquiryID:     req.EnquiryID,
		EstimatedCost: enquiry.QuotedAmount,
	}); err != nil {
		return database.ServiceDetail{}, fmt.Errorf("create service details: %w", err)
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	photo, err := store.CreatePhoto(ctx, database.CreatePhotoParams{
		EnquiryID: req.EnquiryID,
		Stage:     enum.PhotoStageService,
		PhotoType: photoType,
		PhotoData: req.Photo,
		Notes:     notes,
	})
	if err != nil {
		return database.ServiceDetail{}, fmt.Errorf("create photo: %w", err)
	}

	var detail database.ServiceDetail
	if photoType == enum.PhotoTypeBefore {
		detail, err = store.SetOverallBeforePhoto(ctx, database.SetOverallBeforePhotoParams{
			EnquiryID: req.EnquiryID,
			PhotoID:   photo.ID,
		})
	} else {
		detail, err = store.SetOverallAfterPhoto(ctx, database.SetOverallAfterPhotoParams{
			EnquiryID: req.EnquiryID,
			PhotoID:   photo.ID,
		})
	}
	if err != nil {
		return database.ServiceDetail{}, fmt.Errorf("link overall photo: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.ServiceDetail{}, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

// ListAssignments returns every assignment on an enquiry, ordered by
// product, item index, and service type.
func (s *AssignmentService) ListAssignments(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetEnquiry(ctx, enquiryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	assignments, err := store.ListAssignmentsByEnquiry(ctx, enquiryID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return assignments, nil
}

func lockAssignment(ctx context.Context, store AssignmentStore, id int64) (database.ServiceTypeAssignment, error) {
	current, err := store.GetAssignmentForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ServiceTypeAssignment{}, ErrAssignmentNotFound
		}
		return database.ServiceTypeAssignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return current, nil
}
