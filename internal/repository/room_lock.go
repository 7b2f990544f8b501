package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// RoomTx is the unit of work available while a room row is locked. All
// booking operations are scoped to the locked room.
type RoomTx interface {
	// Room returns the locked room as read at the start of the
	// transaction, reflecting status writes made through this RoomTx.
	Room() *model.Room
	SetRoomStatus(ctx context.Context, status model.RoomStatus) error
	MarkCleaned(ctx context.Context, at time.Time) error
	MarkMaintained(ctx context.Context, at time.Time) error
	DeleteRoom(ctx context.Context) error

	// HasOverlap reports whether an active booking of the room other
	// than excludeID intersects stay.
	HasOverlap(ctx context.Context, stay model.Interval, excludeID uint64) (bool, error)
	ActiveBookings(ctx context.Context) ([]model.Booking, error)
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id uint64) error
}

type roomTx struct {
	tx   *sql.Tx
	room *model.Room
}

func (t *roomTx) Room() *model.Room { return t.room }

func (t *roomTx) SetRoomStatus(ctx context.Context, status model.RoomStatus) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), t.room.ID); err != nil {
		return fmt.Errorf("set room status: %w", err)
	}
	t.room.Status = status
	return nil
}

func (t *roomTx) MarkCleaned(ctx context.Context, at time.Time) error {
	at = at.UTC()
	if _, err := t.tx.ExecContext(ctx, `UPDATE rooms SET last_cleaned = ? WHERE id = ?`, at, t.room.ID); err != nil {
		return fmt.Errorf("mark room cleaned: %w", err)
	}
	t.room.LastCleaned = &at
	return nil
}

func (t *roomTx) MarkMaintained(ctx context.Context, at time.Time) error {
	at = at.UTC()
	if _, err := t.tx.ExecContext(ctx, `UPDATE rooms SET last_maintenance = ? WHERE id = ?`, at, t.room.ID); err != nil {
		return fmt.Errorf("mark room maintained: %w", err)
	}
	t.room.LastMaintenance = &at
	return nil
}

func (t *roomTx) DeleteRoom(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, t.room.ID); err != nil {
		if isReferenced(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (t *roomTx) HasOverlap(ctx context.Context, stay model.Interval, excludeID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = ? AND status IN (?,?) AND check_in_date < ? AND check_out_date > ? AND id <> ?)`,
		t.room.ID, model.BookingReserved, model.BookingCheckedIn, stay.End.UTC(), stay.Start.UTC(), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

func (t *roomTx) ActiveBookings(ctx context.Context) ([]model.Booking, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings b
		WHERE room_id = ? AND status IN (?,?) ORDER BY check_in_date`,
		t.room.ID, model.BookingReserved, model.BookingCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("active bookings: %w", err)
	}
	return scanBookings(rows)
}

func (t *roomTx) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE id = ? AND room_id = ? FOR UPDATE`,
		id, t.room.ID)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err, model.ErrBookingNotFound)
	}
	return b, nil
}

func (t *roomTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO bookings
		(guest_id, room_id, check_in_date, check_out_date, status, nights, base_cents, tax_cents, total_cents,
		 paid_cents, payment_status, payment_method, adults, children, special_requests, source, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.GuestID, t.room.ID, b.CheckInDate.UTC(), b.CheckOutDate.UTC(), b.Status, b.Nights, b.BaseCents, b.TaxCents,
		b.TotalCents, b.PaidCents, b.PaymentStatus, b.PaymentMethod, b.Adults, b.Children, b.SpecialRequests,
		b.Source, b.Notes, now, now)
	if err != nil {
		switch {
		case isMissingReference(err):
			return model.ErrGuestNotFound
		case isCheckViolation(err):
			return model.ErrInvalidDateRange
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = uint64(id)
	b.RoomID = t.room.ID
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func (t *roomTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := t.tx.ExecContext(ctx, `UPDATE bookings SET
		check_in_date=?, check_out_date=?, actual_check_in=?, actual_check_out=?, status=?, nights=?,
		base_cents=?, tax_cents=?, total_cents=?, paid_cents=?, payment_status=?, payment_method=?,
		adults=?, children=?, special_requests=?, cancellation_reason=?, checked_in_by=?, checked_out_by=?,
		key_number=?, notes=?, updated_at=?
		WHERE id=? AND room_id=?`,
		b.CheckInDate.UTC(), b.CheckOutDate.UTC(), timeArg(b.ActualCheckIn), timeArg(b.ActualCheckOut), b.Status, b.Nights,
		b.BaseCents, b.TaxCents, b.TotalCents, b.PaidCents, b.PaymentStatus, b.PaymentMethod,
		b.Adults, b.Children, b.SpecialRequests, b.CancellationReason, uintArg(b.CheckedInBy), uintArg(b.CheckedOutBy),
		b.KeyNumber, b.Notes, b.UpdatedAt,
		b.ID, t.room.ID)
	if err != nil {
		if isCheckViolation(err) {
			return model.ErrInvalidDateRange
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (t *roomTx) DeleteBooking(ctx context.Context, id uint64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND room_id = ?`, id, t.room.ID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrBookingNotFound
	}
	return nil
}
