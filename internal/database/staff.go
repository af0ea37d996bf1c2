package database

import "context"

const staffColumns = `id, full_name, email, hashed_password, role, is_active, created_at`

func scanStaff(row interface{ Scan(...any) error }) (Staff, error) {
	var i Staff
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getStaffByEmail = `
SELECT ` + staffColumns + ` FROM staff WHERE email = $1 AND is_active`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaffByEmail, email))
}

const getStaffByID = `
SELECT ` + staffColumns + ` FROM staff WHERE id = $1 AND is_active`

func (q *Queries) GetStaffByID(ctx context.Context, id int64) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaffByID, id))
}

const createStaff = `
INSERT INTO staff (full_name, email, hashed_password, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + staffColumns

type CreateStaffParams struct {
	FullName       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, createStaff, arg.FullName, arg.Email, arg.HashedPassword, arg.Role)
	return scanStaff(row)
}
