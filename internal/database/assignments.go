package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const assignmentColumns = `id, enquiry_id, product, item_index, service_type, status, notes, started_at, completed_at, created_at, updated_at`

func scanAssignment(row interface{ Scan(...any) error }) (ServiceTypeAssignment, error) {
	var i ServiceTypeAssignment
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.Product,
		&i.ItemIndex,
		&i.ServiceType,
		&i.Status,
		&i.Notes,
		&i.StartedAt,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// CreateAssignment inserts a pending assignment for one item instance.
// The unique index on (enquiry_id, product, item_index, service_type)
// plus DO NOTHING makes re-assignment a no-op: callers get ErrNoRows
// for an already-present type and treat it as a silent skip.
const createAssignment = `
INSERT INTO service_types (enquiry_id, product, item_index, service_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (enquiry_id, product, item_index, service_type) DO NOTHING
RETURNING ` + assignmentColumns

type CreateAssignmentParams struct {
	EnquiryID   int64
	Product     string
	ItemIndex   int32
	ServiceType string
}

func (q *Queries) CreateAssignment(ctx context.Context, arg CreateAssignmentParams) (ServiceTypeAssignment, error) {
	row := q.db.QueryRow(ctx, createAssignment, arg.EnquiryID, arg.Product, arg.ItemIndex, arg.ServiceType)
	return scanAssignment(row)
}

const getAssignment = `
SELECT ` + assignmentColumns + ` FROM service_types WHERE id = $1`

func (q *Queries) GetAssignment(ctx context.Context, id int64) (ServiceTypeAssignment, error) {
	return scanAssignment(q.db.QueryRow(ctx, getAssignment, id))
}

const getAssignmentForUpdate = `
SELECT ` + assignmentColumns + ` FROM service_types WHERE id = $1 FOR NO KEY UPDATE`

func (q *Queries) GetAssignmentForUpdate(ctx context.Context, id int64) (ServiceTypeAssignment, error) {
	return scanAssignment(q.db.QueryRow(ctx, getAssignmentForUpdate, id))
}

const listAssignmentsByEnquiry = `
SELECT ` + assignmentColumns + ` FROM service_types
WHERE enquiry_id = $1
ORDER BY product, item_index, service_type`

func (q *Queries) ListAssignmentsByEnquiry(ctx context.Context, enquiryID int64) ([]ServiceTypeAssignment, error) {
	rows, err := q.db.Query(ctx, listAssignmentsByEnquiry, enquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ServiceTypeAssignment
	for rows.Next() {
		i, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// StartAssignment moves pending -> in-progress; a row in any other
// status scans no rows, which the service maps to a precondition error.
const startAssignment = `
UPDATE service_types
SET status = 'in-progress', started_at = now(), notes = COALESCE($2, notes), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + assignmentColumns

type StartAssignmentParams struct {
	ID    int64
	Notes pgtype.Text
}

func (q *Queries) StartAssignment(ctx context.Context, arg StartAssignmentParams) (ServiceTypeAssignment, error) {
	return scanAssignment(q.db.QueryRow(ctx, startAssignment, arg.ID, arg.Notes))
}

const completeAssignment = `
UPDATE service_types
SET status = 'done', completed_at = now(), notes = COALESCE($2, notes), updated_at = now()
WHERE id = $1 AND status = 'in-progress'
RETURNING ` + assignmentColumns

type CompleteAssignmentParams struct {
	ID    int64
	Notes pgtype.Text
}

func (q *Queries) CompleteAssignment(ctx context.Context, arg CompleteAssignmentParams) (ServiceTypeAssignment, error) {
	return scanAssignment(q.db.QueryRow(ctx, completeAssignment, arg.ID, arg.Notes))
}

const countUnfinishedAssignments = `
SELECT COUNT(*) FROM service_types
WHERE enquiry_id = $1 AND status <> 'done'`

func (q *Queries) CountUnfinishedAssignments(ctx context.Context, enquiryID int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countUnfinishedAssignments, enquiryID).Scan(&count)
	return count, err
}
