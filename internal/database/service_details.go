package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const serviceDetailColumns = `id, enquiry_id, estimated_cost, actual_cost, work_notes, overall_before_photo_id, overall_after_photo_id, completed_at, created_at, updated_at`

func scanServiceDetail(row interface{ Scan(...any) error }) (ServiceDetail, error) {
	var i ServiceDetail
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.EstimatedCost,
		&i.ActualCost,
		&i.WorkNotes,
		&i.OverallBeforePhotoID,
		&i.OverallAfterPhotoID,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getServiceDetail = `
SELECT ` + serviceDetailColumns + ` FROM service_details WHERE enquiry_id = $1`

func (q *Queries) GetServiceDetail(ctx context.Context, enquiryID int64) (ServiceDetail, error) {
	return scanServiceDetail(q.db.QueryRow(ctx, getServiceDetail, enquiryID))
}

// CreateServiceDetailIfAbsent is the create-if-absent half of
// EnsureServiceDetails; an existing row wins and keeps its values.
const createServiceDetailIfAbsent = `
INSERT INTO service_details (enquiry_id, estimated_cost)
VALUES ($1, $2)
ON CONFLICT (enquiry_id) DO NOTHING`

type CreateServiceDetailIfAbsentParams struct {
	EnquiryID     int64
	EstimatedCost pgtype.Numeric
}

func (q *Queries) CreateServiceDetailIfAbsent(ctx context.Context, arg CreateServiceDetailIfAbsentParams) error {
	_, err := q.db.Exec(ctx, createServiceDetailIfAbsent, arg.EnquiryID, arg.EstimatedCost)
	return err
}

const setOverallBeforePhoto = `
UPDATE service_details
SET overall_before_photo_id = $2, updated_at = now()
WHERE enquiry_id = $1
RETURNING ` + serviceDetailColumns

type SetOverallBeforePhotoParams struct {
	EnquiryID int64
	PhotoID   int64
}

func (q *Queries) SetOverallBeforePhoto(ctx context.Context, arg SetOverallBeforePhotoParams) (ServiceDetail, error) {
	return scanServiceDetail(q.db.QueryRow(ctx, setOverallBeforePhoto, arg.EnquiryID, arg.PhotoID))
}

const setOverallAfterPhoto = `
UPDATE service_details
SET overall_after_photo_id = $2, updated_at = now()
WHERE enquiry_id = $1
RETURNING ` + serviceDetailColumns

type SetOverallAfterPhotoParams struct {
	EnquiryID int64
	PhotoID   int64
}

func (q *Queries) SetOverallAfterPhoto(ctx context.Context, arg SetOverallAfterPhotoParams) (ServiceDetail, error) {
	return scanServiceDetail(q.db.QueryRow(ctx, setOverallAfterPhoto, arg.EnquiryID, arg.PhotoID))
}

const completeServiceDetail = `
UPDATE service_details
SET actual_cost = $2, work_notes = $3, completed_at = now(), updated_at = now()
WHERE enquiry_id = $1
RETURNING ` + serviceDetailColumns

type CompleteServiceDetailParams struct {
	EnquiryID  int64
	ActualCost pgtype.Numeric
	WorkNotes  pgtype.Text
}

func (q *Queries) CompleteServiceDetail(ctx context.Context, arg CompleteServiceDetailParams) (ServiceDetail, error) {
	return scanServiceDetail(q.db.QueryRow(ctx, completeServiceDetail, arg.EnquiryID, arg.ActualCost, arg.WorkNotes))
}
