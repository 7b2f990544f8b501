package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// BookingRepo serves booking reads. Writes happen through RoomTx so they
// are always serialized per room.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a BookingRepo backed by db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.guest_id, b.room_id, b.check_in_date, b.check_out_date, b.actual_check_in, b.actual_check_out,
	b.status, b.nights, b.base_cents, b.tax_cents, b.total_cents, b.paid_cents, b.payment_status, b.payment_method,
	b.adults, b.children, COALESCE(b.special_requests, ''), b.source, b.cancellation_reason,
	b.checked_in_by, b.checked_out_by, b.key_number, COALESCE(b.notes, ''), b.created_at, b.updated_at`

// bookingDetailColumns extends bookingColumns with the joined room and
// guest summaries.
const bookingDetailColumns = bookingColumns + `,
	r.room_number, r.type, r.price_cents, r.floor, u.name, u.email, u.phone`

const bookingDetailFrom = ` FROM bookings b
	JOIN rooms r ON r.id = b.room_id
	JOIN users u ON u.id = b.guest_id`

func bookingDest(b *model.Booking, actualIn, actualOut *sql.NullTime, inBy, outBy *sql.NullInt64) []any {
	return []any{&b.ID, &b.GuestID, &b.RoomID, &b.CheckInDate, &b.CheckOutDate, actualIn, actualOut,
		&b.Status, &b.Nights, &b.BaseCents, &b.TaxCents, &b.TotalCents, &b.PaidCents, &b.PaymentStatus, &b.PaymentMethod,
		&b.Adults, &b.Children, &b.SpecialRequests, &b.Source, &b.CancellationReason,
		inBy, outBy, &b.KeyNumber, &b.Notes, &b.CreatedAt, &b.UpdatedAt}
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                   model.Booking
		actualIn, actualOut sql.NullTime
		inBy, outBy         sql.NullInt64
	)
	if err := s.Scan(bookingDest(&b, &actualIn, &actualOut, &inBy, &outBy)...); err != nil {
		return nil, err
	}
	b.ActualCheckIn, b.ActualCheckOut = nullTime(actualIn), nullTime(actualOut)
	b.CheckedInBy, b.CheckedOutBy = nullUint(inBy), nullUint(outBy)
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBookingDetail(s rowScanner) (*model.Booking, error) {
	var (
		b                   model.Booking
		actualIn, actualOut sql.NullTime
		inBy, outBy         sql.NullInt64
		room                model.RoomSummary
		guest               model.GuestSummary
	)
	dest := append(bookingDest(&b, &actualIn, &actualOut, &inBy, &outBy),
		&room.RoomNumber, &room.Type, &room.PriceCents, &room.Floor, &guest.Name, &guest.Email, &guest.Phone)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	b.ActualCheckIn, b.ActualCheckOut = nullTime(actualIn), nullTime(actualOut)
	b.CheckedInBy, b.CheckedOutBy = nullUint(inBy), nullUint(outBy)
	room.ID, guest.ID = b.RoomID, b.GuestID
	b.Room, b.Guest = &room, &guest
	return &b, nil
}

func scanBookingDetails(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// GetByID returns a booking with room and guest populated, or
// model.ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingDetailColumns+bookingDetailFrom+` WHERE b.id = ?`, id)
	b, err := scanBookingDetail(row)
	if err != nil {
		return nil, notFound(err, model.ErrBookingNotFound)
	}
	return b, nil
}

// List returns one page of bookings matching f plus the total number of
// matches. f is expected to be normalized.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, int64, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.GuestID != 0 {
		where = append(where, "b.guest_id = ?")
		args = append(args, f.GuestID)
	}
	if f.RoomID != 0 {
		where = append(where, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.CheckInDate != nil {
		d := f.CheckInDate.UTC().Truncate(24 * time.Hour)
		where = append(where, "b.check_in_date >= ? AND b.check_in_date < ?")
		args = append(args, d, d.Add(24*time.Hour))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingDetailColumns+bookingDetailFrom+` WHERE `+cond+
		` ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	items, err := scanBookingDetails(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByGuest returns every booking of a guest, newest first.
func (r *BookingRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingDetailColumns+bookingDetailFrom+
		` WHERE b.guest_id = ? ORDER BY b.check_in_date DESC`, guestID)
	if err != nil {
		return nil, fmt.Errorf("list guest bookings: %w", err)
	}
	return scanBookingDetails(rows)
}

// ListInRange returns bookings whose stay intersects [from, to).
func (r *BookingRepo) ListInRange(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingDetailColumns+bookingDetailFrom+
		` WHERE b.check_in_date < ? AND b.check_out_date > ? ORDER BY b.check_in_date`, to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("list bookings in range: %w", err)
	}
	return scanBookingDetails(rows)
}

// ListOverdue returns Reserved bookings whose check-in date is before
// cutoff, oldest first.
func (r *BookingRepo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings b
		WHERE b.status = ? AND b.check_in_date < ? ORDER BY b.check_in_date LIMIT ?`,
		model.BookingReserved, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue bookings: %w", err)
	}
	return scanBookings(rows)
}
