package service

import "errors"

// Errors returned by the workflow, assignment, and billing services.
// Grouped by how callers should treat them; handlers map each group to
// one HTTP status via the Is* helpers below.
var (
	// Not found: the record does not exist or is not in the stage the
	// operation addresses.
	ErrEnquiryNotFound    = errors.New("enquiry not found")
	ErrAssignmentNotFound = errors.New("service assignment not found")
	ErrItemNotFound       = errors.New("item instance not found on enquiry")
	ErrStageMismatch      = errors.New("enquiry is not in the expected stage")

	// Precondition failed: the stage guard or status machine blocks the
	// transition; the caller must finish the missing step first.
	ErrServicesIncomplete      = errors.New("not all assigned services are done")
	ErrFinalPhotoMissing       = errors.New("overall after photo has not been captured")
	ErrBillingRequired         = errors.New("billing must be created before delivery")
	ErrPickupStatusRegression  = errors.New("pickup status cannot move backwards")
	ErrPickupNotScheduled      = errors.New("pickup has not been scheduled")
	ErrDeliveryStatus          = errors.New("delivery is not in a deliverable status")
	ErrAssignmentNotPending    = errors.New("service assignment is not pending")
	ErrAssignmentNotInProgress = errors.New("service assignment is not in progress")

	// Validation: malformed input.
	ErrNoItems            = errors.New("items are required")
	ErrDuplicateItem      = errors.New("duplicate item instance in request")
	ErrNoProducts         = errors.New("products are required")
	ErrNoServiceTypes     = errors.New("service_types are required")
	ErrNoLines            = errors.New("line items are required")
	ErrInvalidServiceType = errors.New("invalid service type")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidItemIndex   = errors.New("item_index must be >= 1")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDiscount    = errors.New("discount_percent must be between 0 and 100")
	ErrInvalidGst         = errors.New("gst_percent must be between 0 and 100")
	ErrInvalidSchedule    = errors.New("scheduled_for must be RFC3339")
	ErrPhotoMissing       = errors.New("photo is required")
	ErrPhotoLimitExceeded = errors.New("item photo limit exceeded")
	ErrCustomerRequired   = errors.New("customer name and phone are required")
	ErrAssigneeRequired   = errors.New("assigned_to is required")

	// Conflict: the record already exists.
	ErrBillingExists = errors.New("billing already exists for enquiry")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrEnquiryNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrStageMismatch)
}

func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrServicesIncomplete) ||
		errors.Is(err, ErrFinalPhotoMissing) ||
		errors.Is(err, ErrBillingRequired) ||
		errors.Is(err, ErrPickupStatusRegression) ||
		errors.Is(err, ErrPickupNotScheduled) ||
		errors.Is(err, ErrDeliveryStatus) ||
		errors.Is(err, ErrAssignmentNotPending) ||
		errors.Is(err, ErrAssignmentNotInProgress)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrDuplicateItem) ||
		errors.Is(err, ErrNoProducts) ||
		errors.Is(err, ErrNoServiceTypes) ||
		errors.Is(err, ErrNoLines) ||
		errors.Is(err, ErrInvalidServiceType) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidItemIndex) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrInvalidGst) ||
		errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrPhotoMissing) ||
		errors.Is(err, ErrPhotoLimitExceeded) ||
		errors.Is(err, ErrCustomerRequired) ||
		errors.Is(err, ErrAssigneeRequired)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrBillingExists)
}
