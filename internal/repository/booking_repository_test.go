package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-operations/internal/model"
)

var bookingCols = []string{"id", "guest_id", "room_id", "check_in_date", "check_out_date", "actual_check_in",
	"actual_check_out", "status", "nights", "base_cents", "tax_cents", "total_cents", "paid_cents", "payment_status",
	"payment_method", "adults", "children", "special_requests", "source", "cancellation_reason", "checked_in_by",
	"checked_out_by", "key_number", "notes", "created_at", "updated_at"}

var bookingDetailCols = append(append([]string{}, bookingCols...),
	"room_number", "room_type", "price_cents", "floor", "name", "email", "phone")

func bookingValues(id int64, status model.BookingStatus, in, out time.Time) []driver.Value {
	return []driver.Value{id, int64(3), int64(7), in, out, nil, nil, string(status), 2, int64(20000), int64(2000), int64(22000),
		int64(0), "Pending", "", 2, 0, "", "Online", "", nil, nil, "", "", in, in}
}

func TestBookingRepo_GetByIDJoinsRoomAndGuest(t *testing.T) {
	db, mock := newMock(t)
	in := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	out := in.Add(48 * time.Hour)
	vals := append(bookingValues(11, model.BookingReserved, in, out), "101", "Deluxe", int64(10000), 1, "Ann", "ann@example.com", "")
	mock.ExpectQuery(`JOIN rooms r .*JOIN users u .*WHERE b.id = \?`).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(bookingDetailCols).AddRow(vals...))

	b, err := NewBookingRepo(db).GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, model.BookingReserved, b.Status)
	require.NotNil(t, b.Room)
	require.NotNil(t, b.Guest)
	assert.Equal(t, uint64(7), b.Room.ID)
	assert.Equal(t, "101", b.Room.RoomNumber)
	assert.Equal(t, uint64(3), b.Guest.ID)
	assert.Nil(t, b.ActualCheckIn)
	assert.Nil(t, b.CheckedInBy)
}

func TestBookingRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE b.id = \?`).WithArgs(5).WillReturnRows(sqlmock.NewRows(bookingDetailCols))

	_, err := NewBookingRepo(db).GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestBookingRepo_ListPaginates(t *testing.T) {
	db, mock := newMock(t)
	f := model.BookingFilter{Status: model.BookingCheckedIn, Page: 3, Limit: 10}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings b WHERE b.status = \?`).WithArgs(model.BookingCheckedIn).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`LIMIT \? OFFSET \?`).WithArgs(model.BookingCheckedIn, 10, 20).
		WillReturnRows(sqlmock.NewRows(bookingDetailCols))

	items, total, err := NewBookingRepo(db).List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ListOverdue(t *testing.T) {
	db, mock := newMock(t)
	cutoff := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	in := cutoff.Add(-72 * time.Hour)
	mock.ExpectQuery(`WHERE b.status = \? AND b.check_in_date < \?`).WithArgs(model.BookingReserved, cutoff, 50).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingValues(1, model.BookingReserved, in, in.Add(24*time.Hour))...))

	items, err := NewBookingRepo(db).ListOverdue(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Room)
}

func TestInvoiceRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO invoices`).WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})

	err := NewInvoiceRepo(db).Create(context.Background(), &model.Invoice{BookingID: 1, IssuedAt: time.Now()})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestInvoiceRepo_GetByBookingDecodesItems(t *testing.T) {
	db, mock := newMock(t)
	issued := time.Date(2025, 5, 3, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM invoices WHERE booking_id = \?`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "items", "total_cents", "issued_at"}).
			AddRow(1, 4, []byte(`[{"description":"Room","amount_cents":1000},{"description":"Tax","amount_cents":100}]`), 1100, issued))

	inv, err := NewInvoiceRepo(db).GetByBooking(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, int64(1100), inv.TotalCents)
	assert.Equal(t, int64(100), inv.Items[1].AmountCents)
}

func TestHousekeepingRepo_CompleteStoresIssues(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2025, 5, 3, 11, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE housekeeping_tasks SET status = \?, end_time = \?`).
		WithArgs(model.TaskCompleted, at, "done", `["leaking tap"]`, sqlmock.AnyArg(), 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewHousekeepingRepo(db).Complete(context.Background(), 8, at, "done", []string{"leaking tap"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHousekeepingRepo_AssignMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE housekeeping_tasks SET assigned_to`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewHousekeepingRepo(db).Assign(context.Background(), 8, 2)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}
