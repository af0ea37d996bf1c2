package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
	"github.com/soleserve/api/internal/notify"
)

// --- Mock store ---

type mockWorkflowStore struct {
	createEnquiryFn              func(ctx context.Context, arg database.CreateEnquiryParams) (database.Enquiry, error)
	createEnquiryProductFn       func(ctx context.Context, arg database.CreateEnquiryProductParams) (database.EnquiryProduct, error)
	getEnquiryForUpdateFn        func(ctx context.Context, id int64) (database.Enquiry, error)
	getEnquiryProductFn          func(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error)
	updateEnquiryStageFn         func(ctx context.Context, arg database.UpdateEnquiryStageParams) (database.Enquiry, error)
	updateEnquiryFinalAmountFn   func(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error)
	getPickupDetailFn            func(ctx context.Context, enquiryID int64) (database.PickupDetail, error)
	upsertPickupDetailFn         func(ctx context.Context, arg database.UpsertPickupDetailParams) (database.PickupDetail, error)
	createServiceDetailIfAbsentFn func(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error
	getServiceDetailFn           func(ctx context.Context, enquiryID int64) (database.ServiceDetail, error)
	completeServiceDetailFn      func(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error)
	countUnfinishedAssignmentsFn func(ctx context.Context, enquiryID int64) (int64, error)
	getBillingByEnquiryFn        func(ctx context.Context, enquiryID int64) (database.BillingDetail, error)
	getDeliveryDetailFn          func(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error)
	upsertDeliveryDetailFn       func(ctx context.Context, arg database.UpsertDeliveryDetailParams) (database.DeliveryDetail, error)
	createPhotoFn                func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error)
	countItemPhotosFn            func(ctx context.Context, arg database.CountItemPhotosParams) (int64, error)
	deleteEnquiryFn              func(ctx context.Context, id int64) (int64, error)
}

func (m *mockWorkflowStore) CreateEnquiry(ctx context.Context, arg database.CreateEnquiryParams) (database.Enquiry, error) {
	return m.createEnquiryFn(ctx, arg)
}
func (m *mockWorkflowStore) CreateEnquiryProduct(ctx context.Context, arg database.CreateEnquiryProductParams) (database.EnquiryProduct, error) {
	return m.createEnquiryProductFn(ctx, arg)
}
func (m *mockWorkflowStore) GetEnquiryForUpdate(ctx context.Context, id int64) (database.Enquiry, error) {
	return m.getEnquiryForUpdateFn(ctx, id)
}
func (m *mockWorkflowStore) GetEnquiryProduct(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error) {
	return m.getEnquiryProductFn(ctx, arg)
}
func (m *mockWorkflowStore) UpdateEnquiryStage(ctx context.Context, arg database.UpdateEnquiryStageParams) (database.Enquiry, error) {
	return m.updateEnquiryStageFn(ctx, arg)
}
func (m *mockWorkflowStore) UpdateEnquiryFinalAmount(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error) {
	return m.updateEnquiryFinalAmountFn(ctx, arg)
}
func (m *mockWorkflowStore) GetPickupDetail(ctx context.Context, enquiryID int64) (database.PickupDetail, error) {
	return m.getPickupDetailFn(ctx, enquiryID)
}
func (m *mockWorkflowStore) UpsertPickupDetail(ctx context.Context, arg database.UpsertPickupDetailParams) (database.PickupDetail, error) {
	return m.upsertPickupDetailFn(ctx, arg)
}
func (m *mockWorkflowStore) CreateServiceDetailIfAbsent(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error {
	return m.createServiceDetailIfAbsentFn(ctx, arg)
}
func (m *mockWorkflowStore) GetServiceDetail(ctx context.Context, enquiryID int64) (database.ServiceDetail, error) {
	return m.getServiceDetailFn(ctx, enquiryID)
}
func (m *mockWorkflowStore) CompleteServiceDetail(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error) {
	return m.completeServiceDetailFn(ctx, arg)
}
func (m *mockWorkflowStore) CountUnfinishedAssignments(ctx context.Context, enquiryID int64) (int64, error) {
	return m.countUnfinishedAssignmentsFn(ctx, enquiryID)
}
func (m *mockWorkflowStore) GetBillingByEnquiry(ctx context.Context, enquiryID int64) (database.BillingDetail, error) {
	return m.getBillingByEnquiryFn(ctx, enquiryID)
}
func (m *mockWorkflowStore) GetDeliveryDetail(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error) {
	return m.getDeliveryDetailFn(ctx, enquiryID)
}
func (m *mockWorkflowStore) UpsertDeliveryDetail(ctx context.Context, arg database.UpsertDeliveryDetailParams) (database.DeliveryDetail, error) {
	return m.upsertDeliveryDetailFn(ctx, arg)
}
func (m *mockWorkflowStore) CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
	return m.createPhotoFn(ctx, arg)
}
func (m *mockWorkflowStore) CountItemPhotos(ctx context.Context, arg database.CountItemPhotosParams) (int64, error) {
	return m.countItemPhotosFn(ctx, arg)
}
func (m *mockWorkflowStore) DeleteEnquiry(ctx context.Context, id int64) (int64, error) {
	return m.deleteEnquiryFn(ctx, id)
}

type mockNotifier struct {
	changes []notify.StageChange
}

func (m *mockNotifier) StageChanged(change notify.StageChange) {
	m.changes = append(m.changes, change)
}

func enquiryAt(id int64, stage string) database.Enquiry {
	return database.Enquiry{
		ID:            id,
		TrackingCode:  uuid.New(),
		CustomerName:  "Asha",
		CustomerPhone: "+91-90000-00001",
		CurrentStage:  stage,
		QuotedAmount:  makeNumeric("750.00"),
	}
}

// defaultWorkflowStore wires happy-path behavior for an enquiry with
// two products: Shoes (qty 2) and Bag (qty 1).
func defaultWorkflowStore(stage string) *mockWorkflowStore {
	photoID := int64(0)
	return &mockWorkflowStore{
		getEnquiryForUpdateFn: func(ctx context.Context, id int64) (database.Enquiry, error) {
			return enquiryAt(id, stage), nil
		},
		getEnquiryProductFn: func(ctx context.Context, arg database.GetEnquiryProductParams) (database.EnquiryProduct, error) {
			switch arg.Product {
			case "Shoes":
				return database.EnquiryProduct{EnquiryID: arg.EnquiryID, Product: "Shoes", Quantity: 2}, nil
			case "Bag":
				return database.EnquiryProduct{EnquiryID: arg.EnquiryID, Product: "Bag", Quantity: 1}, nil
			}
			return database.EnquiryProduct{}, pgx.ErrNoRows
		},
		updateEnquiryStageFn: func(ctx context.Context, arg database.UpdateEnquiryStageParams) (database.Enquiry, error) {
			e := enquiryAt(arg.ID, arg.Stage)
			return e, nil
		},
		updateEnquiryFinalAmountFn: func(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error) {
			return database.Enquiry{ID: arg.ID, FinalAmount: arg.FinalAmount}, nil
		},
		getPickupDetailFn: func(ctx context.Context, enquiryID int64) (database.PickupDetail, error) {
			return database.PickupDetail{}, pgx.ErrNoRows
		},
		upsertPickupDetailFn: func(ctx context.Context, arg database.UpsertPickupDetailParams) (database.PickupDetail, error) {
			return database.PickupDetail{EnquiryID: arg.EnquiryID, Status: arg.Status}, nil
		},
		createServiceDetailIfAbsentFn: func(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error {
			return nil
		},
		getServiceDetailFn: func(ctx context.Context, enquiryID int64) (database.ServiceDetail, error) {
			return database.ServiceDetail{
				EnquiryID:           enquiryID,
				EstimatedCost:       makeNumeric("750.00"),
				OverallAfterPhotoID: pgtype.Int8{Int64: 10, Valid: true},
			}, nil
		},
		completeServiceDetailFn: func(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error) {
			return database.ServiceDetail{EnquiryID: arg.EnquiryID, ActualCost: arg.ActualCost}, nil
		},
		countUnfinishedAssignmentsFn: func(ctx context.Context, enquiryID int64) (int64, error) {
			return 0, nil
		},
		getBillingByEnquiryFn: func(ctx context.Context, enquiryID int64) (database.BillingDetail, error) {
			return database.BillingDetail{ID: 5, EnquiryID: enquiryID, TotalAmount: makeNumeric("1062.00")}, nil
		},
		getDeliveryDetailFn: func(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error) {
			return database.DeliveryDetail{EnquiryID: enquiryID, Status: enum.DeliveryStatusScheduled}, nil
		},
		upsertDeliveryDetailFn: func(ctx context.Context, arg database.UpsertDeliveryDetailParams) (database.DeliveryDetail, error) {
			return database.DeliveryDetail{EnquiryID: arg.EnquiryID, Status: arg.Status}, nil
		},
		createPhotoFn: func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
			photoID++
			return database.Photo{ID: photoID, EnquiryID: arg.EnquiryID, Stage: arg.Stage, PhotoType: arg.PhotoType}, nil
		},
		countItemPhotosFn: func(ctx context.Context, arg database.CountItemPhotosParams) (int64, error) {
			return 0, nil
		},
		deleteEnquiryFn: func(ctx context.Context, id int64) (int64, error) {
			return 1, nil
		},
	}
}

func newTestWorkflowService(store *mockWorkflowStore) (*WorkflowService, *mockNotifier) {
	notifier := &mockNotifier{}
	pool := &mockTxBeginner{tx: &mockTx{}}
	svc := NewWorkflowService(pool, func(db database.DBTX) WorkflowStore { return store }, notifier)
	return svc, notifier
}

// --- CreateEnquiry ---

func TestCreateEnquiryValidation(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageEnquiry))

	tests := []struct {
		name    string
		req     CreateEnquiryRequest
		wantErr error
	}{
		{
			"missing customer",
			CreateEnquiryRequest{Products: []CreateEnquiryProductRequest{{Product: "Shoes", Quantity: 1}}},
			ErrCustomerRequired,
		},
		{
			"no products",
			CreateEnquiryRequest{CustomerName: "Asha", CustomerPhone: "1"},
			ErrNoProducts,
		},
		{
			"zero quantity",
			CreateEnquiryRequest{CustomerName: "Asha", CustomerPhone: "1",
				Products: []CreateEnquiryProductRequest{{Product: "Shoes", Quantity: 0}}},
			ErrInvalidQuantity,
		},
		{
			"duplicate product",
			CreateEnquiryRequest{CustomerName: "Asha", CustomerPhone: "1",
				Products: []CreateEnquiryProductRequest{{Product: "Shoes", Quantity: 1}, {Product: "Shoes", Quantity: 2}}},
			ErrDuplicateItem,
		},
		{
			"bad quoted amount",
			CreateEnquiryRequest{CustomerName: "Asha", CustomerPhone: "1", QuotedAmount: "abc",
				Products: []CreateEnquiryProductRequest{{Product: "Shoes", Quantity: 1}}},
			ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEnquiry(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateEnquirySuccess(t *testing.T) {
	store := defaultWorkflowStore(enum.StageEnquiry)
	var created []database.CreateEnquiryProductParams
	store.createEnquiryFn = func(ctx context.Context, arg database.CreateEnquiryParams) (database.Enquiry, error) {
		return database.Enquiry{ID: 1, TrackingCode: arg.TrackingCode, CustomerName: arg.CustomerName,
			CustomerPhone: arg.CustomerPhone, CurrentStage: enum.StageEnquiry, QuotedAmount: arg.QuotedAmount}, nil
	}
	store.createEnquiryProductFn = func(ctx context.Context, arg database.CreateEnquiryProductParams) (database.EnquiryProduct, error) {
		created = append(created, arg)
		return database.EnquiryProduct{EnquiryID: arg.EnquiryID, Product: arg.Product, Quantity: arg.Quantity}, nil
	}
	svc, _ := newTestWorkflowService(store)

	result, err := svc.CreateEnquiry(context.Background(), CreateEnquiryRequest{
		CustomerName:  "Asha",
		CustomerPhone: "+91-90000-00001",
		QuotedAmount:  "750.00",
		Products: []CreateEnquiryProductRequest{
			{Product: "Shoes", Quantity: 2},
			{Product: "Bag", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Enquiry.CurrentStage != enum.StageEnquiry {
		t.Errorf("stage = %q, want enquiry", result.Enquiry.CurrentStage)
	}
	if len(created) != 2 {
		t.Errorf("products created = %d, want 2", len(created))
	}
	if !numericEquals(result.Enquiry.QuotedAmount, "750.00") {
		t.Errorf("quoted = %v, want 750.00", result.Enquiry.QuotedAmount)
	}
}

// --- ReceiveItems ---

func receiveRequest() ReceiveItemsRequest {
	return ReceiveItemsRequest{
		EnquiryID: 1,
		Items: []ReceivedItemRequest{
			{Product: "Shoes", ItemIndex: 1, Photos: []string{"img-a", "img-b"}},
			{Product: "Shoes", ItemIndex: 2, Photos: []string{"img-c"}},
			{Product: "Bag", ItemIndex: 1, Photos: []string{"img-d"}},
		},
	}
}

func TestReceiveItemsAdvancesToService(t *testing.T) {
	store := defaultWorkflowStore(enum.StagePickup)
	var photos []database.CreatePhotoParams
	inner := store.createPhotoFn
	store.createPhotoFn = func(ctx context.Context, arg database.CreatePhotoParams) (database.Photo, error) {
		photos = append(photos, arg)
		return inner(ctx, arg)
	}
	var pickupStatus string
	store.upsertPickupDetailFn = func(ctx context.Context, arg database.UpsertPickupDetailParams) (database.PickupDetail, error) {
		pickupStatus = arg.Status
		return database.PickupDetail{EnquiryID: arg.EnquiryID, Status: arg.Status}, nil
	}
	var estimated pgtype.Numeric
	store.createServiceDetailIfAbsentFn = func(ctx context.Context, arg database.CreateServiceDetailIfAbsentParams) error {
		estimated = arg.EstimatedCost
		return nil
	}
	svc, notifier := newTestWorkflowService(store)

	enquiry, err := svc.ReceiveItems(context.Background(), receiveRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enquiry.CurrentStage != enum.StageService {
		t.Errorf("stage = %q, want service", enquiry.CurrentStage)
	}
	if len(photos) != 4 {
		t.Errorf("photos = %d, want 4", len(photos))
	}
	for _, p := range photos {
		if p.Stage != enum.PhotoStagePickup || p.PhotoType != enum.PhotoTypeBefore {
			t.Errorf("photo stored as (%s, %s), want (pickup, before_photo)", p.Stage, p.PhotoType)
		}
	}
	if photos[0].SlotIndex.Int32 != 1 || photos[1].SlotIndex.Int32 != 2 {
		t.Errorf("slot indexes = %d,%d, want 1,2", photos[0].SlotIndex.Int32, photos[1].SlotIndex.Int32)
	}
	if pickupStatus != enum.PickupStatusReceived {
		t.Errorf("pickup status = %q, want received", pickupStatus)
	}
	// estimated cost falls back to the quoted amount
	if !numericEquals(estimated, "750.00") {
		t.Errorf("estimated = %v, want 750.00", estimated)
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Stage != enum.StageService {
		t.Errorf("notifications = %+v, want one service-stage change", notifier.changes)
	}
}

func TestReceiveItemsWrongStage(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageService))

	_, err := svc.ReceiveItems(context.Background(), receiveRequest())
	if !errors.Is(err, ErrStageMismatch) {
		t.Errorf("err = %v, want %v", err, ErrStageMismatch)
	}
}

func TestReceiveItemsUnknownItemInstance(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StagePickup))

	req := ReceiveItemsRequest{
		EnquiryID: 1,
		Items:     []ReceivedItemRequest{{Product: "Shoes", ItemIndex: 3, Photos: []string{"img"}}},
	}
	_, err := svc.ReceiveItems(context.Background(), req)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want %v", err, ErrItemNotFound)
	}
}

func TestReceiveItemsPhotoCap(t *testing.T) {
	store := defaultWorkflowStore(enum.StagePickup)
	store.countItemPhotosFn = func(ctx context.Context, arg database.CountItemPhotosParams) (int64, error) {
		return 3, nil
	}
	svc, _ := newTestWorkflowService(store)

	req := ReceiveItemsRequest{
		EnquiryID: 1,
		Items:     []ReceivedItemRequest{{Product: "Bag", ItemIndex: 1, Photos: []string{"img-1", "img-2"}}},
	}
	_, err := svc.ReceiveItems(context.Background(), req)
	if !errors.Is(err, ErrPhotoLimitExceeded) {
		t.Errorf("err = %v, want %v", err, ErrPhotoLimitExceeded)
	}
}

func TestReceiveItemsDuplicateItem(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StagePickup))

	req := ReceiveItemsRequest{
		EnquiryID: 1,
		Items: []ReceivedItemRequest{
			{Product: "Shoes", ItemIndex: 1, Photos: []string{"img"}},
			{Product: "Shoes", ItemIndex: 1, Photos: []string{"img"}},
		},
	}
	_, err := svc.ReceiveItems(context.Background(), req)
	if !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("err = %v, want %v", err, ErrDuplicateItem)
	}
}

// --- CompleteServiceWorkflow ---

func TestCompleteServiceWorkflowBlockedByUnfinishedAssignments(t *testing.T) {
	store := defaultWorkflowStore(enum.StageService)
	store.countUnfinishedAssignmentsFn = func(ctx context.Context, enquiryID int64) (int64, error) {
		return 1, nil
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.CompleteServiceWorkflow(context.Background(), CompleteServiceWorkflowRequest{EnquiryID: 1})
	if !errors.Is(err, ErrServicesIncomplete) {
		t.Errorf("err = %v, want %v", err, ErrServicesIncomplete)
	}
}

func TestCompleteServiceWorkflowBlockedByMissingFinalPhoto(t *testing.T) {
	store := defaultWorkflowStore(enum.StageService)
	store.getServiceDetailFn = func(ctx context.Context, enquiryID int64) (database.ServiceDetail, error) {
		return database.ServiceDetail{EnquiryID: enquiryID}, nil // no after photo linked
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.CompleteServiceWorkflow(context.Background(), CompleteServiceWorkflowRequest{EnquiryID: 1})
	if !errors.Is(err, ErrFinalPhotoMissing) {
		t.Errorf("err = %v, want %v", err, ErrFinalPhotoMissing)
	}
}

func TestCompleteServiceWorkflowSuccess(t *testing.T) {
	store := defaultWorkflowStore(enum.StageService)
	var actual pgtype.Numeric
	store.completeServiceDetailFn = func(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error) {
		actual = arg.ActualCost
		return database.ServiceDetail{EnquiryID: arg.EnquiryID, ActualCost: arg.ActualCost}, nil
	}
	svc, notifier := newTestWorkflowService(store)

	enquiry, err := svc.CompleteServiceWorkflow(context.Background(), CompleteServiceWorkflowRequest{
		EnquiryID:  1,
		ActualCost: "820.00",
		WorkNotes:  "replaced sole",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enquiry.CurrentStage != enum.StageBilling {
		t.Errorf("stage = %q, want billing", enquiry.CurrentStage)
	}
	if !numericEquals(actual, "820.00") {
		t.Errorf("actual cost = %v, want 820.00", actual)
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Stage != enum.StageBilling {
		t.Errorf("notifications = %+v, want one billing-stage change", notifier.changes)
	}
}

func TestCompleteServiceWorkflowDefaultsActualToEstimate(t *testing.T) {
	store := defaultWorkflowStore(enum.StageService)
	var actual pgtype.Numeric
	store.completeServiceDetailFn = func(ctx context.Context, arg database.CompleteServiceDetailParams) (database.ServiceDetail, error) {
		actual = arg.ActualCost
		return database.ServiceDetail{EnquiryID: arg.EnquiryID}, nil
	}
	svc, _ := newTestWorkflowService(store)

	if _, err := svc.CompleteServiceWorkflow(context.Background(), CompleteServiceWorkflowRequest{EnquiryID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(actual, "750.00") {
		t.Errorf("actual cost = %v, want estimate 750.00", actual)
	}
}

// --- Pickup lifecycle ---

func TestSchedulePickupFromEnquiryStage(t *testing.T) {
	svc, notifier := newTestWorkflowService(defaultWorkflowStore(enum.StageEnquiry))

	enquiry, err := svc.SchedulePickup(context.Background(), SchedulePickupRequest{EnquiryID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enquiry.CurrentStage != enum.StagePickup {
		t.Errorf("stage = %q, want pickup", enquiry.CurrentStage)
	}
	if len(notifier.changes) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.changes))
	}
}

func TestSchedulePickupRejectsBadTimestamp(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageEnquiry))

	_, err := svc.SchedulePickup(context.Background(), SchedulePickupRequest{EnquiryID: 1, ScheduledFor: "tomorrow"})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("err = %v, want %v", err, ErrInvalidSchedule)
	}
}

func TestAssignPickupAfterCollectionRegresses(t *testing.T) {
	store := defaultWorkflowStore(enum.StagePickup)
	store.getPickupDetailFn = func(ctx context.Context, enquiryID int64) (database.PickupDetail, error) {
		return database.PickupDetail{EnquiryID: enquiryID, Status: enum.PickupStatusCollected}, nil
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.AssignPickup(context.Background(), AssignPickupRequest{EnquiryID: 1, AssignedTo: "Ravi"})
	if !errors.Is(err, ErrPickupStatusRegression) {
		t.Errorf("err = %v, want %v", err, ErrPickupStatusRegression)
	}
}

func TestMarkCollectedWithoutSchedule(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StagePickup))

	_, err := svc.MarkCollected(context.Background(), 1)
	if !errors.Is(err, ErrPickupNotScheduled) {
		t.Errorf("err = %v, want %v", err, ErrPickupNotScheduled)
	}
}

// --- Delivery lifecycle ---

func TestMoveToDeliveryRequiresBilling(t *testing.T) {
	store := defaultWorkflowStore(enum.StageBilling)
	store.getBillingByEnquiryFn = func(ctx context.Context, enquiryID int64) (database.BillingDetail, error) {
		return database.BillingDetail{}, pgx.ErrNoRows
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.MoveToDelivery(context.Background(), 1)
	if !errors.Is(err, ErrBillingRequired) {
		t.Errorf("err = %v, want %v", err, ErrBillingRequired)
	}
}

func TestMoveToDeliverySuccess(t *testing.T) {
	store := defaultWorkflowStore(enum.StageBilling)
	var deliveryStatus string
	store.upsertDeliveryDetailFn = func(ctx context.Context, arg database.UpsertDeliveryDetailParams) (database.DeliveryDetail, error) {
		deliveryStatus = arg.Status
		return database.DeliveryDetail{EnquiryID: arg.EnquiryID, Status: arg.Status}, nil
	}
	svc, _ := newTestWorkflowService(store)

	enquiry, err := svc.MoveToDelivery(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enquiry.CurrentStage != enum.StageDelivery {
		t.Errorf("stage = %q, want delivery", enquiry.CurrentStage)
	}
	if deliveryStatus != enum.DeliveryStatusScheduled {
		t.Errorf("delivery status = %q, want scheduled", deliveryStatus)
	}
}

func TestCompleteDeliveryRequiresProofPhoto(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageDelivery))

	_, err := svc.CompleteDelivery(context.Background(), CompleteDeliveryRequest{EnquiryID: 1})
	if !errors.Is(err, ErrPhotoMissing) {
		t.Errorf("err = %v, want %v", err, ErrPhotoMissing)
	}
}

func TestCompleteDeliveryStampsFinalAmount(t *testing.T) {
	store := defaultWorkflowStore(enum.StageDelivery)
	var stamped pgtype.Numeric
	store.updateEnquiryFinalAmountFn = func(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error) {
		stamped = arg.FinalAmount
		return database.Enquiry{ID: arg.ID, FinalAmount: arg.FinalAmount}, nil
	}
	svc, notifier := newTestWorkflowService(store)

	enquiry, err := svc.CompleteDelivery(context.Background(), CompleteDeliveryRequest{
		EnquiryID:  1,
		ProofPhoto: "img-proof",
		ReceivedBy: "Asha",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enquiry.CurrentStage != enum.StageCompleted {
		t.Errorf("stage = %q, want completed", enquiry.CurrentStage)
	}
	if !numericEquals(stamped, "1062.00") {
		t.Errorf("final amount = %v, want invoice total 1062.00", stamped)
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Stage != enum.StageCompleted {
		t.Errorf("notifications = %+v, want one completed-stage change", notifier.changes)
	}
}

func TestCompleteDeliveryRejectsDeliveredStatus(t *testing.T) {
	store := defaultWorkflowStore(enum.StageDelivery)
	store.getDeliveryDetailFn = func(ctx context.Context, enquiryID int64) (database.DeliveryDetail, error) {
		return database.DeliveryDetail{EnquiryID: enquiryID, Status: enum.DeliveryStatusDelivered}, nil
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.CompleteDelivery(context.Background(), CompleteDeliveryRequest{EnquiryID: 1, ProofPhoto: "img"})
	if !errors.Is(err, ErrDeliveryStatus) {
		t.Errorf("err = %v, want %v", err, ErrDeliveryStatus)
	}
}

// --- DeleteEnquiry ---

func TestDeleteEnquiryOnlyAtIntake(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageService))

	err := svc.DeleteEnquiry(context.Background(), 1)
	if !errors.Is(err, ErrStageMismatch) {
		t.Errorf("err = %v, want %v", err, ErrStageMismatch)
	}
}

func TestDeleteEnquirySuccess(t *testing.T) {
	svc, _ := newTestWorkflowService(defaultWorkflowStore(enum.StageEnquiry))

	if err := svc.DeleteEnquiry(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnquiryNotFound(t *testing.T) {
	store := defaultWorkflowStore(enum.StagePickup)
	store.getEnquiryForUpdateFn = func(ctx context.Context, id int64) (database.Enquiry, error) {
		return database.Enquiry{}, pgx.ErrNoRows
	}
	svc, _ := newTestWorkflowService(store)

	_, err := svc.ReceiveItems(context.Background(), receiveRequest())
	if !errors.Is(err, ErrEnquiryNotFound) {
		t.Errorf("err = %v, want %v", err, ErrEnquiryNotFound)
	}
}
