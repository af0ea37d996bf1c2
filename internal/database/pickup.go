package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const pickupColumns = `id, enquiry_id, status, assigned_to, scheduled_for, collected_at, received_at, created_at, updated_at`

func scanPickupDetail(row interface{ Scan(...any) error }) (PickupDetail, error) {
	var i PickupDetail
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.Status,
		&i.AssignedTo,
		&i.ScheduledFor,
		&i.CollectedAt,
		&i.ReceivedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPickupDetail = `
SELECT ` + pickupColumns + ` FROM pickup_details WHERE enquiry_id = $1`

func (q *Queries) GetPickupDetail(ctx context.Context, enquiryID int64) (PickupDetail, error) {
	return scanPickupDetail(q.db.QueryRow(ctx, getPickupDetail, enquiryID))
}

// UpsertPickupDetail creates the row lazily on the first pickup action
// and merges later actions into it. Null params leave the stored value
// untouched so statuses and timestamps only accumulate.
const upsertPickupDetail = `
INSERT INTO pickup_details (enquiry_id, status, assigned_to, scheduled_for, collected_at, received_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (enquiry_id) DO UPDATE SET
    status        = EXCLUDED.status,
    assigned_to   = COALESCE(EXCLUDED.assigned_to, pickup_details.assigned_to),
    scheduled_for = COALESCE(EXCLUDED.scheduled_for, pickup_details.scheduled_for),
    collected_at  = COALESCE(EXCLUDED.collected_at, pickup_details.collected_at),
    received_at   = COALESCE(EXCLUDED.received_at, pickup_details.received_at),
    updated_at    = now()
RETURNING ` + pickupColumns

type UpsertPickupDetailParams struct {
	EnquiryID    int64
	Status       string
	AssignedTo   pgtype.Text
	ScheduledFor pgtype.Timestamptz
	CollectedAt  pgtype.Timestamptz
	ReceivedAt   pgtype.Timestamptz
}

func (q *Queries) UpsertPickupDetail(ctx context.Context, arg UpsertPickupDetailParams) (PickupDetail, error) {
	row := q.db.QueryRow(ctx, upsertPickupDetail,
		arg.EnquiryID,
		arg.Status,
		arg.AssignedTo,
		arg.ScheduledFor,
		arg.CollectedAt,
		arg.ReceivedAt,
	)
	return scanPickupDetail(row)
}
