package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
)

// --- Mock store ---

type mockAssignmentStore struct {
	getEnquiryFn                  func(ctx context.Context, id int64) (database.Enquiry, error)
	getEnquiryForUpdateFn         func(ctx context.Context, id int64) (database.Enquiry, error)
	getEnquiryProductFn           func(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error)
	createServiceDetailIfAbsentFn func(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error
	getServiceDetailFn            func(ctx context.Context, enquiryID int64) (database.ServiceDetail, error)
	setOverallBeforePhotoFn       func(ctx context.Context, arg database.SetOverallBeforePhotoParams) (database.ServiceDetail, error)
	setOverallAfterPhotoFn        func(ctx context.Context, arg database.SetOverallAfterPhotoParams) (database.ServiceDetail, error)
	createAssignmentFn            func(ctx context.Context, arg database.CreateAssignmentParams) (database.ServiceTypeAssignment, error)
	getAssignmentForUpdateFn      func(ctx context.Context, id int64) (database.ServiceTypeAssignment, error)
	listAssignmentsByEnquiryFn    func(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error)
	startAssignmentFn             func(ctx context.Context, arg database.StartAssignmentParams) (database.ServiceTypeAssignment, error)
	completeAssignmentFn          func(ctx context.Context, arg database.CompleteAssignmentParams) (database.ServiceTypeAssignment, error)
	createPhotoFn                 func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error)
}

func (m *mockAssignmentStore) GetEnquiry(ctx context.Context, id int64) (database.Enquiry, error) {
	return m.getEnquiryFn(ctx, id)
}
func (m *mockAssignmentStore) GetEnquiryForUpdate(ctx context.Context, id int64) (database.Enquiry, error) {
	return m.getEnquiryForUpdateFn(ctx, id)
}
func (m *mockAssignmentStore) GetEnquiryProduct(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error) {
	return m.getEnquiryProductFn(ctx, arg)
}
func (m *mockAssignmentStore) CreateServiceDetailIfAbsent(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error {
	return m.createServiceDetailIfAbsentFn(ctx, arg)
}
func (m *mockAssignmentStore) GetServiceDetail(ctx context.Context, enquiryID int64) (database.ServiceDetail, error) {
	return m.getServiceDetailFn(ctx, enquiryID)
}
func (m *mockAssignmentStore) SetOverallBeforePhoto(ctx context.Context, arg database.SetOverallBeforePhotoParams) (database.ServiceDetail, error) {
	return m.setOverallBeforePhotoFn(ctx, arg)
}
func (m *mockAssignmentStore) SetOverallAfterPhoto(ctx context.Context, arg database.SetOverallAfterPhotoParams) (database.ServiceDetail, error) {
	return m.setOverallAfterPhotoFn(ctx, arg)
}
func (m *mockAssignmentStore) CreateAssignment(ctx context.Context, arg database.CreateAssignmentParams) (database.ServiceTypeAssignment, error) {
	return m.createAssignmentFn(ctx, arg)
}
func (m *mockAssignmentStore) GetAssignmentForUpdate(ctx context.Context, id int64) (database.ServiceTypeAssignment, error) {
	return m.getAssignmentForUpdateFn(ctx, id)
}
func (m *mockAssignmentStore) ListAssignmentsByEnquiry(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error) {
	return m.listAssignmentsByEnquiryFn(ctx, enquiryID)
}
func (m *mockAssignmentStore) StartAssignment(ctx context.Context, arg database.StartAssignmentParams) (database.ServiceTypeAssignment, error) {
	return m.startAssignmentFn(ctx, arg)
}
func (m *mockAssignmentStore) CompleteAssignment(ctx context.Context, arg database.CompleteAssignmentParams) (database.ServiceTypeAssignment, error) {
	return m.completeAssignmentFn(ctx, arg)
}
func (m *mockAssignmentStore) CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
	return m.createPhotoFn(ctx, arg)
}

// defaultAssignmentStore simulates a service-stage enquiry that already
// has a Cleaning assignment on Shoes #1. CreateAssignment honors the
// unique index: re-adding Cleaning scans no rows.
func defaultAssignmentStore() *mockAssignmentStore {
	existing := map[string]bool{"Shoes/1/Cleaning": true}
	nextID := int64(100)
	assignments := []database.ServiceTypeAssignment{
		{ID: 1, EnquiryID: 1, Product: "Shoes", ItemIndex: 1, ServiceType: enum.ServiceTypeCleaning, Status: enum.AssignmentStatusPending},
	}
	return &mockAssignmentStore{
		getEnquiryFn: func(ctx context.Context, id int64) (database.Enquiry, error) {
			return enquiryAt(id, enum.StageService), nil
		},
		getEnquiryForUpdateFn: func(ctx context.Context, id int64) (database.Enquiry, error) {
			return enquiryAt(id, enum.StageService), nil
		},
		getEnquiryProductFn: func(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error) {
			if arg.Product == "Shoes" {
				return database.EnquiryProduct{EnquiryID: arg.EnquiryID, Product: "Shoes", Quantity: 2}, nil
			}
			return database.EnquiryProduct{}, pgx.ErrNoRows
		},
		createServiceDetailIfAbsentFn: func(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error {
			return nil
		},
		createAssignmentFn: func(ctx context.Context, arg database.CreateAssignmentParams) (database.ServiceTypeAssignment, error) {
			key := fmt.Sprintf("%s/%d/%s", arg.Product, arg.ItemIndex, arg.ServiceType)
			if existing[key] {
				return database.ServiceTypeAssignment{}, pgx.ErrNoRows
			}
			existing[key] = true
			nextID++
			a := database.ServiceTypeAssignment{
				ID: nextID, EnquiryID: arg.EnquiryID, Product: arg.Product,
				ItemIndex: arg.ItemIndex, ServiceType: arg.ServiceType, Status: enum.AssignmentStatusPending,
			}
			assignments = append(assignments, a)
			return a, nil
		},
		listAssignmentsByEnquiryFn: func(ctx context.Context, enquiryID int64) ([]database.ServiceTypeAssignment, error) {
			return assignments, nil
		},
		getAssignmentForUpdateFn: func(ctx context.Context, id int64) (database.ServiceTypeAssignment, error) {
			return database.ServiceTypeAssignment{ID: id, EnquiryID: 1, Product: "Shoes", ItemIndex: 1,
				ServiceType: enum.ServiceTypeCleaning, Status: enum.AssignmentStatusPending}, nil
		},
		startAssignmentFn: func(ctx context.Context, arg database.StartAssignmentParams) (database.ServiceTypeAssignment, error) {
			return database.ServiceTypeAssignment{ID: arg.ID, Status: enum.AssignmentStatusInProgress}, nil
		},
		completeAssignmentFn: func(ctx context.Context, arg database.CompleteAssignmentParams) (database.ServiceTypeAssignment, error) {
			return database.ServiceTypeAssignment{ID: arg.ID, Status: enum.AssignmentStatusDone}, nil
		},
		createPhotoFn: func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
			return database.Photo{ID: 1, EnquiryID: arg.EnquiryID, Stage: arg.Stage, PhotoType: arg.PhotoType}, nil
		},
		getServiceDetailFn: func(ctx context.Context, enquiryID int64) (database.ServiceDetail, error) {
			return database.ServiceDetail{EnquiryID: enquiryID}, nil
		},
		setOverallBeforePhotoFn: func(ctx context.Context, arg database.SetOverallBeforePhotoParams) (database.ServiceDetail, error) {
			return database.ServiceDetail{EnquiryID: arg.EnquiryID}, nil
		},
		setOverallAfterPhotoFn: func(ctx context.Context, arg database.SetOverallAfterPhotoParams) (database.ServiceDetail, error) {
			return database.ServiceDetail{EnquiryID: arg.EnquiryID}, nil
		},
	}
}

func newTestAssignmentService(store *mockAssignmentStore) *AssignmentService {
	pool := &mockTxBeginner{tx: &mockTx{}}
	return NewAssignmentService(pool, func(db database.DBTX) AssignmentStore { return store })
}

// --- AssignServices ---

func TestAssignServicesUnionsWithExisting(t *testing.T) {
	store := defaultAssignmentStore()
	svc := newTestAssignmentService(store)

	// Cleaning already assigned; the request re-sends it plus Repairing.
	assignments, err := svc.AssignServices(context.Background(), AssignServicesRequest{
		EnquiryID:    1,
		Product:      "Shoes",
		ItemIndex:    1,
		ServiceTypes: []string{enum.ServiceTypeCleaning, enum.ServiceTypeRepairing},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(assignments))
	}
	types := map[string]bool{}
	for _, a := range assignments {
		types[a.ServiceType] = true
	}
	if !types[enum.ServiceTypeCleaning] || !types[enum.ServiceTypeRepairing] {
		t.Errorf("assignment types = %v, want Cleaning and Repairing", types)
	}
}

func TestAssignServicesIdempotent(t *testing.T) {
	store := defaultAssignmentStore()
	svc := newTestAssignmentService(store)

	req := AssignServicesRequest{
		EnquiryID:    1,
		Product:      "Shoes",
		ItemIndex:    1,
		ServiceTypes: []string{enum.ServiceTypeCleaning},
	}
	first, err := svc.AssignServices(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.AssignServices(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("repeat changed assignment count: %d -> %d", len(first), len(second))
	}
}

func TestAssignServicesValidation(t *testing.T) {
	svc := newTestAssignmentService(defaultAssignmentStore())

	tests := []struct {
		name    string
		req     AssignServicesRequest
		wantErr error
	}{
		{"no types", AssignServicesRequest{EnquiryID: 1, Product: "Shoes", ItemIndex: 1}, ErrNoServiceTypes},
		{"bad type", AssignServicesRequest{EnquiryID: 1, Product: "Shoes", ItemIndex: 1, ServiceTypes: []string{"Polishing"}}, ErrInvalidServiceType},
		{"zero index", AssignServicesRequest{EnquiryID: 1, Product: "Shoes", ItemIndex: 0, ServiceTypes: []string{enum.ServiceTypeCleaning}}, ErrInvalidItemIndex},
		{"unknown product", AssignServicesRequest{EnquiryID: 1, Product: "Hat", ItemIndex: 1, ServiceTypes: []string{enum.ServiceTypeCleaning}}, ErrItemNotFound},
		{"index beyond quantity", AssignServicesRequest{EnquiryID: 1, Product: "Shoes", ItemIndex: 3, ServiceTypes: []string{enum.ServiceTypeCleaning}}, ErrItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AssignServices(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssignServicesWrongStage(t *testing.T) {
	store := defaultAssignmentStore()
	store.getEnquiryForUpdateFn = func(ctx context.Context, id int64) (database.Enquiry, error) {
		return enquiryAt(id, enum.StagePickup), nil
	}
	svc := newTestAssignmentService(store)

	_, err := svc.AssignServices(context.Background(), AssignServicesRequest{
		EnquiryID: 1, Product: "Shoes", ItemIndex: 1, ServiceTypes: []string{enum.ServiceTypeCleaning},
	})
	if !errors.Is(err, ErrStageMismatch) {
		t.Errorf("err = %v, want %v", err, ErrStageMismatch)
	}
}

// --- Start/Complete ---

func TestStartServiceRequiresPending(t *testing.T) {
	store := defaultAssignmentStore()
	store.getAssignmentForUpdateFn = func(ctx context.Context, id int64) (database.ServiceTypeAssignment, error) {
		return database.ServiceTypeAssignment{ID: id, Status: enum.AssignmentStatusDone}, nil
	}
	svc := newTestAssignmentService(store)

	_, err := svc.StartService(context.Background(), StartServiceRequest{AssignmentID: 1})
	if !errors.Is(err, ErrAssignmentNotPending) {
		t.Errorf("err = %v, want %v", err, ErrAssignmentNotPending)
	}
}

func TestStartServiceSuccess(t *testing.T) {
	svc := newTestAssignmentService(defaultAssignmentStore())

	assignment, err := svc.StartService(context.Background(), StartServiceRequest{AssignmentID: 1, BeforePhoto: "img"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment.Status != enum.AssignmentStatusInProgress {
		t.Errorf("status = %q, want in-progress", assignment.Status)
	}
}

func TestCompleteServiceRequiresAfterPhoto(t *testing.T) {
	svc := newTestAssignmentService(defaultAssignmentStore())

	_, err := svc.CompleteService(context.Background(), CompleteServiceRequest{AssignmentID: 1})
	if !errors.Is(err, ErrPhotoMissing) {
		t.Errorf("err = %v, want %v", err, ErrPhotoMissing)
	}
}

func TestCompleteServiceRequiresInProgress(t *testing.T) {
	svc := newTestAssignmentService(defaultAssignmentStore()) // still pending

	_, err := svc.CompleteService(context.Background(), CompleteServiceRequest{AssignmentID: 1, AfterPhoto: "img"})
	if !errors.Is(err, ErrAssignmentNotInProgress) {
		t.Errorf("err = %v, want %v", err, ErrAssignmentNotInProgress)
	}
}

func TestCompleteServiceSuccess(t *testing.T) {
	store := defaultAssignmentStore()
	store.getAssignmentForUpdateFn = func(ctx context.Context, id int64) (database.ServiceTypeAssignment, error) {
		return database.ServiceTypeAssignment{ID: id, EnquiryID: 1, Product: "Shoes", ItemIndex: 1,
			ServiceType: enum.ServiceTypeCleaning, Status: enum.AssignmentStatusInProgress}, nil
	}
	var photo database.CreatePhotoParams
	store.createPhotoFn = func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
		photo = arg
		return database.Photo{ID: 1}, nil
	}
	svc := newTestAssignmentService(store)

	assignment, err := svc.CompleteService(context.Background(), CompleteServiceRequest{AssignmentID: 1, AfterPhoto: "img-after"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment.Status != enum.AssignmentStatusDone {
		t.Errorf("status = %q, want done", assignment.Status)
	}
	if photo.Stage != enum.PhotoStageService || photo.PhotoType != enum.PhotoTypeAfter {
		t.Errorf("photo stored as (%s, %s), want (service, after_photo)", photo.Stage, photo.PhotoType)
	}
	if !photo.ServiceTypeID.Valid || photo.ServiceTypeID.Int64 != 1 {
		t.Errorf("photo not linked to assignment: %+v", photo.ServiceTypeID)
	}
}

// --- Overall photos ---

func TestSaveFinalPhotoLinksAfterPhoto(t *testing.T) {
	store := defaultAssignmentStore()
	var linked int64
	store.setOverallAfterPhotoFn = func(ctx context.Context, arg database.SetOverallAfterPhotoParams) (database.ServiceDetail, error) {
		linked = arg.PhotoID
		return database.ServiceDetail{EnquiryID: arg.EnquiryID}, nil
	}
	svc := newTestAssignmentService(store)

	if _, err := svc.SaveFinalPhoto(context.Background(), OverallPhotoRequest{EnquiryID: 1, Photo: "img"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked photo id = %d, want 1", linked)
	}
}

func TestSaveFinalPhotoRequiresPhoto(t *testing.T) {
	svc := newTestAssignmentService(defaultAssignmentStore())

	_, err := svc.SaveFinalPhoto(context.Background(), OverallPhotoRequest{EnquiryID: 1})
	if !errors.Is(err, ErrPhotoMissing) {
		t.Errorf("err = %v, want %v", err, ErrPhotoMissing)
	}
}
