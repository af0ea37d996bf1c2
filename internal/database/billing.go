package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const billingColumns = `id, enquiry_id, invoice_seq, invoice_number, invoice_date, gst_included, subtotal, gst_amount, total_amount, notes, created_at`

func scanBillingDetail(row interface{ Scan(...any) error }) (BillingDetail, error) {
	var i BillingDetail
	err := row.Scan(
		&i.ID,
		&i.EnquiryID,
		&i.InvoiceSeq,
		&i.InvoiceNumber,
		&i.InvoiceDate,
		&i.GstIncluded,
		&i.Subtotal,
		&i.GstAmount,
		&i.TotalAmount,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

// GetNextInvoiceSeq takes MAX+1 without locking; two concurrent
// invoices can read the same value, which surfaces as a 23505 on the
// invoice_seq unique index and is retried by the billing service.
const getNextInvoiceSeq = `
SELECT COALESCE(MAX(invoice_seq), 0) + 1 FROM billing_details`

func (q *Queries) GetNextInvoiceSeq(ctx context.Context) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx, getNextInvoiceSeq).Scan(&next)
	return next, err
}

const createBillingDetail = `
INSERT INTO billing_details (enquiry_id, invoice_seq, invoice_number, invoice_date, gst_included, subtotal, gst_amount, total_amount, notes)
VALUES ($1, $2, $3, now(), $4, $5, $6, $7, $8)
RETURNING ` + billingColumns

type CreateBillingDetailParams struct {
	EnquiryID     int64
	InvoiceSeq    int32
	InvoiceNumber string
	GstIncluded   bool
	Subtotal      pgtype.Numeric
	GstAmount     pgtype.Numeric
	TotalAmount   pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) CreateBillingDetail(ctx context.Context, arg CreateBillingDetailParams) (BillingDetail, error) {
	row := q.db.QueryRow(ctx, createBillingDetail,
		arg.EnquiryID,
		arg.InvoiceSeq,
		arg.InvoiceNumber,
		arg.GstIncluded,
		arg.Subtotal,
		arg.GstAmount,
		arg.TotalAmount,
		arg.Notes,
	)
	return scanBillingDetail(row)
}

const getBillingByEnquiry = `
SELECT ` + billingColumns + ` FROM billing_details WHERE enquiry_id = $1`

func (q *Queries) GetBillingByEnquiry(ctx context.Context, enquiryID int64) (BillingDetail, error) {
	return scanBillingDetail(q.db.QueryRow(ctx, getBillingByEnquiry, enquiryID))
}

const billingItemColumns = `id, billing_id, service_type, product, item_index, original_amount, discount_percent, discount_amount, gst_percent, gst_amount, final_amount`

func scanBillingItem(row interface{ Scan(...any) error }) (BillingItem, error) {
	var i BillingItem
	err := row.Scan(
		&i.ID,
		&i.BillingID,
		&i.ServiceType,
		&i.Product,
		&i.ItemIndex,
		&i.OriginalAmount,
		&i.DiscountPercent,
		&i.DiscountAmount,
		&i.GstPercent,
		&i.GstAmount,
		&i.FinalAmount,
	)
	return i, err
}

const createBillingItem = `
INSERT INTO billing_items (billing_id, service_type, product, item_index, original_amount, discount_percent, discount_amount, gst_percent, gst_amount, final_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + billingItemColumns

type CreateBillingItemParams struct {
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

func (q *Queries) CreateBillingItem(ctx context.Context, arg CreateBillingItemParams) (BillingItem, error) {
	row := q.db.QueryRow(ctx, createBillingItem,
		arg.BillingID,
		arg.ServiceType,
		arg.Product,
		arg.ItemIndex,
		arg.OriginalAmount,
		arg.DiscountPercent,
		arg.DiscountAmount,
		arg.GstPercent,
		arg.GstAmount,
		arg.FinalAmount,
	)
	return scanBillingItem(row)
}

const listBillingItems = `
SELECT ` + billingItemColumns + ` FROM billing_items
WHERE billing_id = $1
ORDER BY id`

func (q *Queries) ListBillingItems(ctx context.Context, billingID int64) ([]BillingItem, error) {
	rows, err := q.db.Query(ctx, listBillingItems, billingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillingItem
	for rows.Next() {
		i, err := scanBillingItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
