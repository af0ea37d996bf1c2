package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Enquiry struct {
	ID              int64
	TrackingCode    uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerAddress pgtype.Text
	CurrentStage    string
	QuotedAmount    pgtype.Numeric
	FinalAmount     pgtype.Numeric
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EnquiryProduct struct {
	ID        int64
	EnquiryID int64
	Product   string
	Quantity  int32
}

type PickupDetail struct {
	ID           int64
	EnquiryID    int64
	Status       string
	AssignedTo   pgtype.Text
	ScheduledFor pgtype.Timestamptz
	CollectedAt  pgtype.Timestamptz
	ReceivedAt   pgtype.Timestamptz
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ServiceDetail struct {
	ID                   int64
	EnquiryID            int64
	EstimatedCost        pgtype.Numeric
	ActualCost           pgtype.Numeric
	WorkNotes            pgtype.Text
	OverallBeforePhotoID pgtype.Int8
	OverallAfterPhotoID  pgtype.Int8
	CompletedAt          pgtype.Timestamptz
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ServiceTypeAssignment struct {
	ID          int64
	EnquiryID   int64
	Product     string
	ItemIndex   int32
	ServiceType string
	Status      string
	Notes       pgtype.Text
	StartedAt   pgtype.Timestamptz
	CompletedAt pgtype.Timestamptz
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Photo struct {
	ID            int64
	EnquiryID     int64
	Stage         string
	PhotoType     string
	PhotoData     string
	Notes         pgtype.Text
	ServiceTypeID pgtype.Int8
	Product       pgtype.Text
	ItemIndex     pgtype.Int4
	SlotIndex     pgtype.Int4
	CreatedAt     time.Time
}

type BillingDetail struct {
	ID            int64
	EnquiryID     int64
	InvoiceSeq    int32
	InvoiceNumber string
	InvoiceDate   time.Time
	GstIncluded   bool
	Subtotal      pgtype.Numeric
	GstAmount     pgtype.Numeric
	TotalAmount   pgtype.Numeric
	Notes         pgtype.Text
	CreatedAt     time.Time
}

type BillingItem struct {
	ID              int64
	BillingID       int64
	ServiceType     string
	Product         string
	ItemIndex       int32
	OriginalAmount  pgtype.Numeric
	DiscountPercent pgtype.Numeric
	DiscountAmount  pgtype.Numeric
	GstPercent      pgtype.Numeric
	GstAmount       pgtype.Numeric
	FinalAmount     pgtype.Numeric
}

type DeliveryDetail struct {
	ID           int64
	EnquiryID    int64
	Status       string
	ScheduledFor pgtype.Timestamptz
	DeliveredAt  pgtype.Timestamptz
	ProofPhotoID pgtype.Int8
	ReceivedBy   pgtype.Text
	Signature    pgtype.Text
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Staff struct {
	ID             int64
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}
