package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const photoColumns = `id, enquiry_id, stage, photo_type, photo_data, notes, service_type_id, product, item_index, slot_index, created_at`

func scanPhoto(row interface{ Scan(...any) error }) (Photo, error) {
	var i Photo
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.Stage,
		&i.PhotoType,
		&i.PhotoData,
		&i.Notes,
		&i.ServiceTypeID,
		&i.Product,
		&i.ItemIndex,
		&i.SlotIndex,
		&i.CreatedAt,
	)
	return i, err
}

// CreatePhoto is the only write on photos; the table is append-only.
const createPhoto = `
INSERT INTO photos (enquiry_id, stage, photo_type, photo_data, notes, service_type_id, product, item_index, slot_index)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + photoColumns

type CreatePhotoParams struct {
	EnquiryID     int64
	Stage         string
	PhotoType     string
	PhotoData     string
	Notes         pgtype.Text
	ServiceTypeID pgtype.Int8
	Product       pgtype.Text
	ItemIndex     pgtype.Int4
	SlotIndex     pgtype.Int4
}

func (q *Queries) CreatePhoto(ctx context.Context, arg CreatePhotoParams) (Photo, error) {
	row := q.db.QueryRow(ctx, createPhoto,
		arg.EnquiryID,
		arg.Stage,
		arg.PhotoType,
		arg.PhotoData,
		arg.Notes,
		arg.ServiceTypeID,
		arg.Product,
		arg.ItemIndex,
		arg.SlotIndex,
	)
	return scanPhoto(row)
}

const listPhotosByEnquiry = `
SELECT ` + photoColumns + ` FROM photos
WHERE enquiry_id = $1
ORDER BY id`

func (q *Queries) ListPhotosByEnquiry(ctx context.Context, enquiryID int64) ([]Photo, error) {
	rows, err := q.db.Query(ctx, listPhotosByEnquiry, enquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Photo
	for rows.Next() {
		i, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// CountItemPhotos counts the received-condition shots already stored
// for one item instance; used to enforce the per-item slot cap.
const countItemPhotos = `
SELECT COUNT(*) FROM photos
WHERE enquiry_id = $1 AND stage = 'pickup' AND photo_type = 'before_photo'
  AND product = $2 AND item_index = $3`

type CountItemPhotosParams struct {
	EnquiryID int64
	Product   string
	ItemIndex int32
}

func (q *Queries) CountItemPhotos(ctx context.Context, arg CountItemPhotosParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countItemPhotos, arg.EnquiryID, arg.Product, arg.ItemIndex).Scan(&count)
	return count, err
}
