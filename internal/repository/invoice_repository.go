package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// InvoiceRepo stores generated invoices, at most one per booking.
type InvoiceRepo struct{ db *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// GetByBooking returns the invoice of a booking or model.ErrInvoiceNotFound.
func (r *InvoiceRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error) {
	var (
		inv   model.Invoice
		items []byte
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, booking_id, items, total_cents, issued_at FROM invoices WHERE booking_id = ?`,
		bookingID).Scan(&inv.ID, &inv.BookingID, &items, &inv.TotalCents, &inv.IssuedAt)
	if err != nil {
		return nil, notFound(err, model.ErrInvoiceNotFound)
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return &inv, nil
}

// Create stores inv. If another request stored an invoice for the same
// booking first, model.ErrConflict is returned.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO invoices (booking_id, items, total_cents, issued_at) VALUES (?,?,?,?)`,
		inv.BookingID, string(items), inv.TotalCents, inv.IssuedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}
