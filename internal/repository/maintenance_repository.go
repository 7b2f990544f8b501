package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// MaintenanceRepo stores maintenance requests.
type MaintenanceRepo struct{ db *sql.DB }

func NewMaintenanceRepo(db *sql.DB) *MaintenanceRepo { return &MaintenanceRepo{db: db} }

const maintenanceColumns = `id, room_id, reported_by, assigned_to, type, description, priority, status,
	estimated_cost_cents, actual_cost_cents, scheduled_date, completed_date, COALESCE(notes, ''), created_at, updated_at`

func scanMaintenance(s rowScanner) (*model.MaintenanceRequest, error) {
	var (
		m                    model.MaintenanceRequest
		assignee             sql.NullInt64
		scheduled, completed sql.NullTime
	)
	if err := s.Scan(&m.ID, &m.RoomID, &m.ReportedBy, &assignee, &m.Type, &m.Description, &m.Priority, &m.Status,
		&m.EstimatedCostCents, &m.ActualCostCents, &scheduled, &completed, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.AssignedTo = nullUint(assignee)
	m.ScheduledDate, m.CompletedDate = nullTime(scheduled), nullTime(completed)
	return &m, nil
}

// Create inserts a Pending request and fills in its ID.
func (r *MaintenanceRepo) Create(ctx context.Context, m *model.MaintenanceRequest) error {
	now := time.Now().UTC()
	if m.Priority == "" {
		m.Priority = model.PriorityMedium
	}
	m.Status = model.MaintPending
	res, err := r.db.ExecContext(ctx, `INSERT INTO maintenance_requests
		(room_id, reported_by, assigned_to, type, description, priority, status, estimated_cost_cents, scheduled_date, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.RoomID, m.ReportedBy, uintArg(m.AssignedTo), m.Type, m.Description, m.Priority, m.Status,
		m.EstimatedCostCents, timeArg(m.ScheduledDate), m.Notes, now, now)
	if err != nil {
		if isMissingReference(err) {
			return model.ErrRoomNotFound
		}
		return fmt.Errorf("insert maintenance request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

// GetByID returns a request or model.ErrMaintenanceNotFound.
func (r *MaintenanceRepo) GetByID(ctx context.Context, id uint64) (*model.MaintenanceRequest, error) {
	m, err := scanMaintenance(r.db.QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, model.ErrMaintenanceNotFound)
	}
	return m, nil
}

// List returns requests matching f, newest first.
func (r *MaintenanceRepo) List(ctx context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.RoomID != 0 {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.AssignedTo != 0 {
		where = append(where, "assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE `+cond+
		` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	defer rows.Close()
	out := []model.MaintenanceRequest{}
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Complete closes a request and records its actual cost.
func (r *MaintenanceRepo) Complete(ctx context.Context, id uint64, at time.Time, actualCostCents int64, notes string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE maintenance_requests
		SET status = ?, completed_date = ?, actual_cost_cents = ?, notes = ?, updated_at = ? WHERE id = ?`,
		model.MaintCompleted, at.UTC(), actualCostCents, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete maintenance request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrMaintenanceNotFound
	}
	return nil
}

// Update writes the mutable fields of m.
func (r *MaintenanceRepo) Update(ctx context.Context, m *model.MaintenanceRequest) error {
	m.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE maintenance_requests
		SET type = ?, description = ?, priority = ?, status = ?, estimated_cost_cents = ?, scheduled_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		m.Type, m.Description, m.Priority, m.Status, m.EstimatedCostCents, timeArg(m.ScheduledDate), m.Notes, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update maintenance request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrMaintenanceNotFound
	}
	return nil
}

// Assign sets the staff member responsible for a request.
func (r *MaintenanceRepo) Assign(ctx context.Context, id, staffID uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE maintenance_requests SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		staffID, time.Now().UTC(), id)
	if err != nil {
		if isMissingReference(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("assign maintenance request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrMaintenanceNotFound
	}
	return nil
}

// Delete removes a request.
func (r *MaintenanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete maintenance request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrMaintenanceNotFound
	}
	return nil
}
