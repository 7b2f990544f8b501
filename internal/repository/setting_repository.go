package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// SettingRepo stores named configuration values in system_settings.
type SettingRepo struct{ db *sql.DB }

func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{db: db} }

const settingColumns = "setting_key, category, value, data_type, description, is_active, updated_by, updated_at"

func scanSetting(s rowScanner) (*model.Setting, error) {
	var (
		st model.Setting
		by sql.NullInt64
	)
	if err := s.Scan(&st.Key, &st.Category, &st.Value, &st.DataType, &st.Description, &st.IsActive, &by, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.UpdatedBy = nullUint(by)
	return &st, nil
}

// Get returns a setting regardless of its active flag, or
// model.ErrSettingNotFound.
func (r *SettingRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	st, err := scanSetting(r.db.QueryRowContext(ctx, "SELECT "+settingColumns+" FROM system_settings WHERE setting_key = ?", key))
	if err != nil {
		return nil, notFound(err, model.ErrSettingNotFound)
	}
	return st, nil
}

// List returns all settings, optionally restricted to one category.
func (r *SettingRepo) List(ctx context.Context, category string) ([]model.Setting, error) {
	q := "SELECT " + settingColumns + " FROM system_settings"
	args := []any{}
	if category != "" {
		q += " WHERE category = ?"
		args = append(args, category)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY category, setting_key", args...)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	out := []model.Setting{}
	for rows.Next() {
		st, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Upsert creates or replaces a setting.
func (r *SettingRepo) Upsert(ctx context.Context, st *model.Setting) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO system_settings
		(setting_key, category, value, data_type, description, is_active, updated_by, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE category=VALUES(category), value=VALUES(value), data_type=VALUES(data_type),
			description=VALUES(description), is_active=VALUES(is_active), updated_by=VALUES(updated_by), updated_at=VALUES(updated_at)`,
		st.Key, st.Category, st.Value, st.DataType, st.Description, st.IsActive, uintArg(st.UpdatedBy), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

// Delete removes a setting.
func (r *SettingRepo) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM system_settings WHERE setting_key = ?", key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrSettingNotFound
	}
	return nil
}
