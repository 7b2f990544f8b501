package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// HousekeepingRepo stores cleaning tasks.
type HousekeepingRepo struct{ db *sql.DB }

func NewHousekeepingRepo(db *sql.DB) *HousekeepingRepo { return &HousekeepingRepo{db: db} }

const taskColumns = `t.id, t.room_id, t.booking_id, t.assigned_to, t.type, t.status, t.priority, t.scheduled_date,
	t.start_time, t.end_time, COALESCE(t.notes, ''), t.issues_found, t.created_at, t.updated_at, r.room_number`

const taskFrom = ` FROM housekeeping_tasks t JOIN rooms r ON r.id = t.room_id`

func scanTask(s rowScanner) (*model.HousekeepingTask, error) {
	var (
		t                   model.HousekeepingTask
		bookingID, assignee sql.NullInt64
		startTime, endTime  sql.NullTime
		issues              []byte
	)
	if err := s.Scan(&t.ID, &t.RoomID, &bookingID, &assignee, &t.Type, &t.Status, &t.Priority, &t.ScheduledDate,
		&startTime, &endTime, &t.Notes, &issues, &t.CreatedAt, &t.UpdatedAt, &t.RoomNumber); err != nil {
		return nil, err
	}
	t.BookingID, t.AssignedTo = nullUint(bookingID), nullUint(assignee)
	t.StartTime, t.EndTime = nullTime(startTime), nullTime(endTime)
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &t.IssuesFound); err != nil {
			return nil, fmt.Errorf("decode issues_found: %w", err)
		}
	}
	return &t, nil
}

// Create inserts a Pending task and returns it with its ID set.
func (r *HousekeepingRepo) Create(ctx context.Context, req model.CleaningTaskRequest) (*model.HousekeepingTask, error) {
	now := time.Now().UTC()
	t := &model.HousekeepingTask{
		RoomID:        req.RoomID,
		BookingID:     req.BookingID,
		AssignedTo:    req.AssignedTo,
		Type:          req.Type,
		Status:        model.TaskPending,
		Priority:      req.Priority,
		ScheduledDate: req.ScheduledDate.UTC(),
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO housekeeping_tasks
		(room_id, booking_id, assigned_to, type, status, priority, scheduled_date, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.RoomID, uintArg(t.BookingID), uintArg(t.AssignedTo), t.Type, t.Status, t.Priority, t.ScheduledDate, t.Notes, now, now)
	if err != nil {
		if isMissingReference(err) {
			return nil, model.ErrRoomNotFound
		}
		return nil, fmt.Errorf("insert housekeeping task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	t.ID = uint64(id)
	return t, nil
}

// GetByID returns a task or model.ErrTaskNotFound.
func (r *HousekeepingRepo) GetByID(ctx context.Context, id uint64) (*model.HousekeepingTask, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, notFound(err, model.ErrTaskNotFound)
	}
	return t, nil
}

// List returns tasks matching f ordered by schedule.
func (r *HousekeepingRepo) List(ctx context.Context, f model.TaskFilter) ([]model.HousekeepingTask, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.AssignedTo != 0 {
		where = append(where, "t.assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.RoomID != 0 {
		where = append(where, "t.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.Date != nil {
		d := f.Date.UTC().Truncate(24 * time.Hour)
		where = append(where, "t.scheduled_date >= ? AND t.scheduled_date < ?")
		args = append(args, d, d.Add(24*time.Hour))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE `+cond+` ORDER BY t.scheduled_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("list housekeeping tasks: %w", err)
	}
	defer rows.Close()
	out := []model.HousekeepingTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Assign sets the staff member responsible for a task.
func (r *HousekeepingRepo) Assign(ctx context.Context, id, staffID uint64) error {
	return r.exec(ctx, `UPDATE housekeeping_tasks SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		staffID, time.Now().UTC(), id)
}

// Start moves a task to In Progress and stamps its start time.
func (r *HousekeepingRepo) Start(ctx context.Context, id uint64, at time.Time) error {
	return r.exec(ctx, `UPDATE housekeeping_tasks SET status = ?, start_time = COALESCE(start_time, ?), updated_at = ? WHERE id = ?`,
		model.TaskInProgress, at.UTC(), time.Now().UTC(), id)
}

// Complete closes a task with optional notes and reported issues.
func (r *HousekeepingRepo) Complete(ctx context.Context, id uint64, at time.Time, notes string, issues []string) error {
	var issuesArg any
	if len(issues) > 0 {
		raw, err := json.Marshal(issues)
		if err != nil {
			return err
		}
		issuesArg = string(raw)
	}
	return r.exec(ctx, `UPDATE housekeeping_tasks SET status = ?, end_time = ?, notes = ?, issues_found = ?, updated_at = ? WHERE id = ?`,
		model.TaskCompleted, at.UTC(), notes, issuesArg, time.Now().UTC(), id)
}

func (r *HousekeepingRepo) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update housekeeping task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}
