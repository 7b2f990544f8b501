package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// RoomRepo provides access to the rooms table. Status changes are not
// exposed here; they go through WithRoomLock so that every write to a
// room's status is serialized with the booking checks that depend on it.
type RoomRepo struct{ db *sql.DB }

// NewRoomRepo returns a RoomRepo backed by db.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, room_number, type, bed_type, price_cents, status, floor, max_adults, max_children,
	COALESCE(description, ''), amenities, is_active, last_cleaned, last_maintenance, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(s rowScanner) (*model.Room, error) {
	var (
		rm                  model.Room
		cleaned, maintained sql.NullTime
	)
	if err := s.Scan(&rm.ID, &rm.RoomNumber, &rm.Type, &rm.BedType, &rm.PriceCents, &rm.Status, &rm.Floor,
		&rm.MaxAdults, &rm.MaxChildren, &rm.Description, &rm.Amenities, &rm.IsActive,
		&cleaned, &maintained, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	rm.LastCleaned = nullTime(cleaned)
	rm.LastMaintenance = nullTime(maintained)
	return &rm, nil
}

func scanRooms(rows *sql.Rows) ([]model.Room, error) {
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// Create inserts a room and fills in its ID. A taken room number
// yields model.ErrDuplicateRoomNumber.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	if rm.Status == "" {
		rm.Status = model.RoomAvailable
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO rooms
		(room_number, type, bed_type, price_cents, status, floor, max_adults, max_children, description, amenities, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rm.RoomNumber, rm.Type, rm.BedType, rm.PriceCents, rm.Status, rm.Floor, rm.MaxAdults, rm.MaxChildren,
		rm.Description, rm.Amenities, rm.IsActive, now, now)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	rm.ID = uint64(id)
	rm.CreatedAt, rm.UpdatedAt = now, now
	return nil
}

// GetByID returns a room or model.ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	rm, err := scanRoom(row)
	if err != nil {
		return nil, notFound(err, model.ErrRoomNotFound)
	}
	return rm, nil
}

// List returns rooms matching f ordered by room number.
func (r *RoomRepo) List(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
	where := []string{}
	args := []any{}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Floor != nil {
		where = append(where, "floor = ?")
		args = append(args, *f.Floor)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE `+cond+` ORDER BY room_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return scanRooms(rows)
}

// ListVacant returns active rooms whose status is Available, optionally
// restricted to one type. This is the physical view used by the front
// desk; it says nothing about future reservations.
func (r *RoomRepo) ListVacant(ctx context.Context, roomType string) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE status = ? AND is_active = 1`
	args := []any{model.RoomAvailable}
	if roomType != "" {
		q += ` AND type = ?`
		args = append(args, roomType)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY room_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("list vacant rooms: %w", err)
	}
	return scanRooms(rows)
}

// ListFree returns active, bookable rooms that have no Reserved or
// CheckedIn booking overlapping stay.
func (r *RoomRepo) ListFree(ctx context.Context, stay model.Interval, roomType string) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms r
		WHERE r.is_active = 1
		  AND r.status IN (?,?,?)
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id
			  AND b.status IN (?,?)
			  AND b.check_in_date < ?
			  AND b.check_out_date > ?)`
	args := []any{
		model.RoomAvailable, model.RoomOccupied, model.RoomCleaning,
		model.BookingReserved, model.BookingCheckedIn,
		stay.End.UTC(), stay.Start.UTC(),
	}
	if roomType != "" {
		q += ` AND r.type = ?`
		args = append(args, roomType)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY r.room_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("list free rooms: %w", err)
	}
	return scanRooms(rows)
}

// Update writes the editable attributes of rm. Status is left alone.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET room_number=?, type=?, bed_type=?, price_cents=?, floor=?,
		max_adults=?, max_children=?, description=?, amenities=?, is_active=?, updated_at=? WHERE id=?`,
		rm.RoomNumber, rm.Type, rm.BedType, rm.PriceCents, rm.Floor, rm.MaxAdults, rm.MaxChildren,
		rm.Description, rm.Amenities, rm.IsActive, time.Now().UTC(), rm.ID)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

// WithRoomLock runs fn inside a transaction that holds an exclusive row
// lock on the room. Every read-check-write sequence on a room's bookings
// or status goes through here, so two requests for the same room never
// interleave. fn's error aborts the transaction and is returned as is.
func (r *RoomRepo) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx RoomTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin room tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, roomID)
	room, err := scanRoom(row)
	if err != nil {
		return notFound(err, model.ErrRoomNotFound)
	}

	if err := fn(&roomTx{tx: tx, room: room}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit room tx: %w", err)
	}
	committed = true
	return nil
}
