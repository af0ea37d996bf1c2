package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const deliveryColumns = `id, enquiry_id, status, scheduled_for, delivered_at, proof_photo_id, received_by, signature, created_at, updated_at`

func scanDeliveryDetail(row interface{ Scan(...any) error }) (DeliveryDetail, error) {
	var i DeliveryDetail
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.Status,
		&i.ScheduledFor,
		&i.DeliveredAt,
		&i.ProofPhotoID,
		&i.ReceivedBy,
		&i.Signature,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDeliveryDetail = `
SELECT ` + deliveryColumns + ` FROM delivery_details WHERE enquiry_id = $1`

func (q *Queries) GetDeliveryDetail(ctx context.Context, enquiryID int64) (DeliveryDetail, error) {
	return scanDeliveryDetail(q.db.QueryRow(ctx, getDeliveryDetail, enquiryID))
}

const upsertDeliveryDetail = `
INSERT INTO delivery_details (enquiry_id, status, scheduled_for, delivered_at, proof_photo_id, received_by, signature)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (enquiry_id) DO UPDATE SET
    status         = EXCLUDED.status,
    scheduled_for  = COALESCE(EXCLUDED.scheduled_for, delivery_details.scheduled_for),
    delivered_at   = COALESCE(EXCLUDED.delivered_at, delivery_details.delivered_at),
    proof_photo_id = COALESCE(EXCLUDED.proof_photo_id, delivery_details.proof_photo_id),
    received_by    = COALESCE(EXCLUDED.received_by, delivery_details.received_by),
    signature      = COALESCE(EXCLUDED.signature, delivery_details.signature),
    updated_at     = now()
RETURNING ` + deliveryColumns

type UpsertDeliveryDetailParams struct {
	EnquiryID    int64
	Status       string
	ScheduledFor pgtype.Timestamptz
	DeliveredAt  pgtype.Timestamptz
	ProofPhotoID pgtype.Int8
	ReceivedBy   pgtype.Text
	Signature    pgtype.Text
}

func (q *Queries) UpsertDeliveryDetail(ctx context.Context, arg UpsertDeliveryDetailParams) (DeliveryDetail, error) {
	row := q.db.QueryRow(ctx, upsertDeliveryDetail,
		arg.EnquiryID,
		arg.Status,
		arg.ScheduledFor,
		arg.DeliveredAt,
		arg.ProofPhotoID,
		arg.ReceivedBy,
		arg.Signature,
	)
	return scanDeliveryDetail(row)
}
