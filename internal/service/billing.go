package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
)

const maxInvoiceSeqRetries = 3

// InvoiceLine is one priced piece of work on an invoice, before
// discount and tax.
type InvoiceLine struct {
	ServiceType     string
	Product         string
	ItemIndex       int32
	OriginalAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	GstPercent      decimal.Decimal
}

// ComputedLine is an InvoiceLine with its derived money fields. Every
// derived value is rounded to 2 places at the line level; the invoice
// totals are sums of these rounded values, so totals always match what
// the printed lines add up to.
type ComputedLine struct {
	InvoiceLine
	DiscountAmount decimal.Decimal
	GstAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
}

// ComputedInvoice is the result of pricing a set of lines.
type ComputedInvoice struct {
	Lines    []ComputedLine
	Subtotal decimal.Decimal
	Gst      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeInvoice prices each line and aggregates the totals. Pure: no
// IO, no clock, deterministic for a given input.
func ComputeInvoice(lines []InvoiceLine, gstIncluded bool) (ComputedInvoice, error) {
	if len(lines) == 0 {
		return ComputedInvoice{}, ErrNoLines
	}

	out := ComputedInvoice{
		Lines:    make([]ComputedLine, 0, len(lines)),
		Subtotal: decimal.Zero,
		Gst:      decimal.Zero,
	}
	hundred := decimal.NewFromInt(100)

	for i, line := range lines {
		if !validServiceType(line.ServiceType) {
			return ComputedInvoice{}, fmt.Errorf("lines[%d]: %w: %q", i, ErrInvalidServiceType, line.ServiceType)
		}
		if line.OriginalAmount.IsNegative() {
			return ComputedInvoice{}, fmt.Errorf("lines[%d]: %w", i, ErrInvalidAmount)
		}
		if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred) {
			return ComputedInvoice{}, fmt.Errorf("lines[%d]: %w", i, ErrInvalidDiscount)
		}
		if line.GstPercent.IsNegative() || line.GstPercent.GreaterThan(hundred) {
			return ComputedInvoice{}, fmt.Errorf("lines[%d]: %w", i, ErrInvalidGst)
		}

		discount := round2(line.OriginalAmount.Mul(line.DiscountPercent).Div(hundred))
		if discount.GreaterThan(line.OriginalAmount) {
			discount = line.OriginalAmount
		}
		final := line.OriginalAmount.Sub(discount)

		gst := decimal.Zero
		if gstIncluded {
			gst = round2(final.Mul(line.GstPercent).Div(hundred))
		}

		out.Lines = append(out.Lines, ComputedLine{
			InvoiceLine:    line,
			DiscountAmount: discount,
			GstAmount:      gst,
			FinalAmount:    final,
		})
		out.Subtotal = out.Subtotal.Add(final)
		out.Gst = out.Gst.Add(gst)
	}

	out.Total = out.Subtotal.Add(out.Gst)
	return out, nil
}

// BillingStore defines the DB methods the billing service needs.
type BillingStore interface {
	GetEnquiryForUpdate(ctx context.Context, id int64) (database.Enquiry, error)
	GetEnquiry(ctx context.Context, id int64) (database.Enquiry, error)
	GetBillingByEnquiry(ctx context.Context, enquiryID int64) (database.BillingDetail, error)
	GetNextInvoiceSeq(ctx context.Context) (int32, error)
	CreateBillingDetail(ctx context.Context, arg database.CreateBillingDetailParams) (database.BillingDetail, error)
	CreateBillingItem(ctx context.Context, arg database.CreateBillingItemParams) (database.BillingItem, error)
	ListBillingItems(ctx context.Context, billingID int64) ([]database.BillingItem, error)
	UpdateEnquiryFinalAmount(ctx context.Context, arg database.UpdateEnquiryFinalAmountParams) (database.Enquiry, error)
}

// NewBillingStore creates a BillingStore from a DBTX.
type NewBillingStore func(db database.DBTX) BillingStore

// BillingService persists invoices. The invoice number comes from a
// MAX+1 sequence read; a lost race shows up as a unique violation on
// invoice_seq and the whole transaction is retried.
type BillingService struct {
	pool     TxBeginner
	newStore NewBillingStore
}

func NewBillingService(pool TxBeginner, newStore NewBillingStore) *BillingService {
	return &BillingService{pool: pool, newStore: newStore}
}

type CreateBillingRequest struct {
	EnquiryID   int64
	GstIncluded bool
	Notes       string
	Lines       []InvoiceLine
}

type BillingResult struct {
	Detail database.BillingDetail
	Items  []database.BillingItem
}

// CreateBilling computes and stores the invoice for an enquiry in the
// billing stage. One invoice per enquiry; a second call conflicts.
func (s *BillingService) CreateBilling(ctx context.Context, req CreateBillingRequest) (*BillingResult, error) {
	invoice, err := ComputeInvoice(req.Lines, req.GstIncluded)
	if err != nil {
		return nil, err
	}

	var result *BillingResult
	for attempt := 0; attempt < maxInvoiceSeqRetries; attempt++ {
		result, err = s.createBillingOnce(ctx, req, invoice)
		if err == nil {
			return result, nil
		}
		if !isInvoiceSeqConflict(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("allocate invoice number: %w", err)
}

func (s *BillingService) createBillingOnce(ctx context.Context, req CreateBillingRequest, invoice ComputedInvoice) (*BillingResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	enquiry, err := store.GetEnquiryForUpdate(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	if enquiry.CurrentStage != enum.StageBilling {
		return nil, fmt.Errorf("%w: at %s, expected %s", ErrStageMismatch, enquiry.CurrentStage, enum.StageBilling)
	}

	if _, err := store.GetBillingByEnquiry(ctx, req.EnquiryID); err == nil {
		return nil, ErrBillingExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get billing: %w", err)
	}

	seq, err := store.GetNextInvoiceSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("next invoice seq: %w", err)
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	detail, err := store.CreateBillingDetail(ctx, database.CreateBillingDetailParams{
		EnquiryID:     req.EnquiryID,
		InvoiceSeq:    seq,
		InvoiceNumber: fmt.Sprintf("INV-%05d", seq),
		GstIncluded:   req.GstIncluded,
		Subtotal:      decimalToNumeric(invoice.Subtotal),
		GstAmount:     decimalToNumeric(invoice.Gst),
		TotalAmount:   decimalToNumeric(invoice.Total),
		Notes:         notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create billing: %w", err)
	}

	items := make([]database.BillingItem, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		item, err := store.CreateBillingItem(ctx, database.CreateBillingItemParams{
			BillingID:       detail.ID,
			ServiceType:     line.ServiceType,
			Product:         line.Product,
			ItemIndex:       line.ItemIndex,
			OriginalAmount:  decimalToNumeric(line.OriginalAmount),
			DiscountPercent: decimalToNumeric(line.DiscountPercent),
			DiscountAmount:  decimalToNumeric(line.DiscountAmount),
			GstPercent:      decimalToNumeric(line.GstPercent),
			GstAmount:       decimalToNumeric(line.GstAmount),
			FinalAmount:     decimalToNumeric(line.FinalAmount),
		})
		if err != nil {
			return nil, fmt.Errorf("create billing item: %w", err)
		}
		items = append(items, item)
	}

	if _, err := store.UpdateEnquiryFinalAmount(ctx, database.UpdateEnquiryFinalAmountParams{
		ID:          req.EnquiryID,
		FinalAmount: detail.TotalAmount,
	}); err != nil {
		return nil, fmt.Errorf("update final amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &BillingResult{Detail: detail, Items: items}, nil
}

// GetBilling returns the stored invoice with its line items.
func (s *BillingService) GetBilling(ctx context.Context, enquiryID int64) (*BillingResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetEnquiry(ctx, enquiryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	detail, err := store.GetBillingByEnquiry(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillingRequired
		}
		return nil, fmt.Errorf("get billing: %w", err)
	}
	items, err := store.ListBillingItems(ctx, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("list billing items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &BillingResult{Detail: detail, Items: items}, nil
}

func isInvoiceSeqConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "billing_details_invoice_seq_key"
	}
	return false
}
