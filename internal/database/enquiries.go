package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const enquiryColumns = `id, tracking_code, customer_name, customer_phone, customer_address, current_stage, quoted_amount, final_amount, created_at, updated_at`

func scanEnquiry(row interface{ Scan(...any) error }) (Enquiry, error) {
	var i Enquiry
	err := row.Scan(
		&i.ID,
		&i.TrackingCode,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.CustomerAddress,
		&i.CurrentStage,
		&i.QuotedAmount,
		&i.FinalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEnquiry = `
INSERT INTO enquiries (tracking_code, customer_name, customer_phone, customer_address, quoted_amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + enquiryColumns

type CreateEnquiryParams struct {
	TrackingCode    uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerAddress pgtype.Text
	QuotedAmount    pgtype.Numeric
}

func (q *Queries) CreateEnquiry(ctx context.Context, arg CreateEnquiryParams) (Enquiry, error) {
	row := q.db.QueryRow(ctx, createEnquiry,
		arg.TrackingCode,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.CustomerAddress,
		arg.QuotedAmount,
	)
	return scanEnquiry(row)
}

const getEnquiry = `
SELECT ` + enquiryColumns + ` FROM enquiries WHERE id = $1`

func (q *Queries) GetEnquiry(ctx context.Context, id int64) (Enquiry, error) {
	return scanEnquiry(q.db.QueryRow(ctx, getEnquiry, id))
}

// GetEnquiryForUpdate locks the enquiry row for the duration of the
// surrounding transaction. Every mutating workflow operation goes
// through this lock so concurrent transitions serialize.
const getEnquiryForUpdate = `
SELECT ` + enquiryColumns + ` FROM enquiries WHERE id = $1 FOR NO KEY UPDATE`

func (q *Queries) GetEnquiryForUpdate(ctx context.Context, id int64) (Enquiry, error) {
	return scanEnquiry(q.db.QueryRow(ctx, getEnquiryForUpdate, id))
}

// UpdateEnquiryStage advances current_stage only when the row still
// holds the expected previous stage; a raced transition scans no rows.
const updateEnquiryStage = `
UPDATE enquiries
SET current_stage = $2, updated_at = now()
WHERE id = $1 AND current_stage = $3
RETURNING ` + enquiryColumns

type UpdateEnquiryStageParams struct {
	ID        int64
	Stage     string
	FromStage string
}

func (q *Queries) UpdateEnquiryStage(ctx context.Context, arg UpdateEnquiryStageParams) (Enquiry, error) {
	return scanEnquiry(q.db.QueryRow(ctx, updateEnquiryStage, arg.ID, arg.Stage, arg.FromStage))
}

const updateEnquiryFinalAmount = `
UPDATE enquiries
SET final_amount = $2, updated_at = now()
WHERE id = $1
RETURNING ` + enquiryColumns

type UpdateEnquiryFinalAmountParams struct {
	ID          int64
	FinalAmount pgtype.Numeric
}

func (q *Queries) UpdateEnquiryFinalAmount(ctx context.Context, arg UpdateEnquiryFinalAmountParams) (Enquiry, error) {
	return scanEnquiry(q.db.QueryRow(ctx, updateEnquiryFinalAmount, arg.ID, arg.FinalAmount))
}

const listEnquiriesByStage = `
SELECT ` + enquiryColumns + ` FROM enquiries
WHERE ($1::text IS NULL OR current_stage = $1)
  AND ($2::text IS NULL
       OR customer_name ILIKE '%' || $2 || '%'
       OR customer_phone ILIKE '%' || $2 || '%'
       OR tracking_code::text ILIKE '%' || $2 || '%')
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListEnquiriesByStageParams struct {
	Stage  pgtype.Text
	Search pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListEnquiriesByStage(ctx context.Context, arg ListEnquiriesByStageParams) ([]Enquiry, error) {
	rows, err := q.db.Query(ctx, listEnquiriesByStage, arg.Stage, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Enquiry
	for rows.Next() {
		i, err := scanEnquiry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// DeleteEnquiry removes the root row; children cascade in the schema.
const deleteEnquiry = `
DELETE FROM enquiries WHERE id = $1`

func (q *Queries) DeleteEnquiry(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteEnquiry, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const createEnquiryProduct = `
INSERT INTO enquiry_products (enquiry_id, product, quantity)
VALUES ($1, $2, $3)
RETURNING id, enquiry_id, product, quantity`

type CreateEnquiryProductParams struct {
	EnquiryID int64
	Product   string
	Quantity  int32
}

func (q *Queries) CreateEnquiryProduct(ctx context.Context, arg CreateEnquiryProductParams) (EnquiryProduct, error) {
	row := q.db.QueryRow(ctx, createEnquiryProduct, arg.EnquiryID, arg.Product, arg.Quantity)
	var i EnquiryProduct
	err := row.Scan(&i.ID, &i.EnquiryID, &i.Product, &i.Quantity)
	return i, err
}

const listEnquiryProducts = `
SELECT id, enquiry_id, product, quantity FROM enquiry_products
WHERE enquiry_id = $1
ORDER BY id`

func (q *Queries) ListEnquiryProducts(ctx context.Context, enquiryID int64) ([]EnquiryProduct, error) {
	rows, err := q.db.Query(ctx, listEnquiryProducts, enquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EnquiryProduct
	for rows.Next() {
		var i EnquiryProduct
		if err := rows.Scan(&i.ID, &i.EnquiryID, &i.Product, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getEnquiryProduct = `
SELECT id, enquiry_id, product, quantity FROM enquiry_products
WHERE enquiry_id = $1 AND product = $2`

type GetEnquiryProductParams struct {
	EnquiryID int64
	Product   string
}

func (q *Queries) GetEnquiryProduct(ctx context.Context, arg GetEnquiryProductParams) (EnquiryProduct, error) {
	row := q.db.QueryRow(ctx, getEnquiryProduct, arg.EnquiryID, arg.Product)
	var i EnquiryProduct
	err := row.Scan(&i.ID, &i.EnquiryID, &i.Product, &i.Quantity)
	return i, err
}
