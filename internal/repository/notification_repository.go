package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// NotificationRepo stores in-app notifications.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts an unread notification built from ev and returns its ID.
func (r *NotificationRepo) Create(ctx context.Context, ev model.NotificationEvent) (uint64, error) {
	prio := ev.Priority
	if prio == "" {
		prio = model.PriorityMedium
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO notifications
		(recipient_id, title, message, type, priority, status, entity_type, entity_id, action_required, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		ev.RecipientID, ev.Title, ev.Message, ev.Type, prio, model.NotificationUnread,
		ev.RelatedEntity.Type, ev.RelatedEntity.ID, ev.ActionRequired, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByRecipient returns a user's notifications, newest first. When
// unreadOnly is set, read and archived ones are skipped.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	q := `SELECT id, recipient_id, title, message, type, priority, status, entity_type, entity_id, action_required, read_at, created_at
		FROM notifications WHERE recipient_id = ?`
	args := []any{recipientID}
	if unreadOnly {
		q += " AND status = ?"
		args = append(args, model.NotificationUnread)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		var (
			n      model.Notification
			readAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.Priority, &n.Status,
			&n.RelatedEntity.Type, &n.RelatedEntity.ID, &n.ActionRequired, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ReadAt = nullTime(readAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification owned by recipientID as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET status = ?, read_at = COALESCE(read_at, ?)
		WHERE id = ? AND recipient_id = ?`, model.NotificationRead, time.Now().UTC(), id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of recipientID as read and
// returns how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET status = ?, read_at = COALESCE(read_at, ?)
		WHERE recipient_id = ? AND status = ?`, model.NotificationRead, time.Now().UTC(), recipientID, model.NotificationUnread)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Delete removes a notification owned by recipientID.
func (r *NotificationRepo) Delete(ctx context.Context, id, recipientID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}
