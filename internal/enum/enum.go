package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	StageEnquiry   = "enquiry"
	StagePickup    = "pickup"
	StageService   = "service"
	StageBilling   = "billing"
	StageDelivery  = "delivery"
	StageCompleted = "completed"
)

const (
	PickupStatusScheduled = "scheduled"
	PickupStatusAssigned  = "assigned"
	PickupStatusCollected = "collected"
	PickupStatusReceived  = "received"
)

const (
	AssignmentStatusPending    = "pending"
	AssignmentStatusInProgress = "in-progress"
	AssignmentStatusDone       = "done"
)

const (
	DeliveryStatusScheduled      = "scheduled"
	DeliveryStatusOutForDelivery = "out-for-delivery"
	DeliveryStatusDelivered      = "delivered"
)

// ── Group B: Domain labels (CHECK constrained in DB) ──

const (
	ServiceTypeRepairing = "Repairing"
	ServiceTypeCleaning  = "Cleaning"
	ServiceTypeDyeing    = "Dyeing"
)

const (
	PhotoStagePickup   = "pickup"
	PhotoStageService  = "service"
	PhotoStageDelivery = "delivery"
)

const (
	PhotoTypeBefore = "before_photo"
	PhotoTypeAfter  = "after_photo"
	PhotoTypeProof  = "proof_photo"
)

// Buckets photos are grouped into for read models. Derived from
// (stage, photo_type), never stored.
const (
	PhotoBucketBefore   = "before"
	PhotoBucketAfter    = "after"
	PhotoBucketReceived = "received"
	PhotoBucketOther    = "other"
)

// ── Group C: Staff (CHECK constrained in DB) ──

const (
	StaffRoleOwner      = "OWNER"
	StaffRoleManager    = "MANAGER"
	StaffRoleTechnician = "TECHNICIAN"
	StaffRoleDelivery   = "DELIVERY"
)

// MaxItemPhotos caps received-condition photos per item instance.
const MaxItemPhotos = 4
