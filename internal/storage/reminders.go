package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"remindbot/internal/models"
)

const reminderColumns = `id, key, text, user_id, user_tag, chat_id, remind_time, "offset", expired, job_context`

// ---------- reminders -------------------------------------------------------

func (d *DB) CreateReminder(ctx context.Context, r *models.Reminder) error {
	var offset sql.NullInt64
	if r.Offset != nil {
		offset = sql.NullInt64{Int64: int64(*r.Offset), Valid: true}
	}
	var jobContext sql.NullString
	if len(r.JobContext) > 0 {
		jobContext = sql.NullString{String: string(r.JobContext), Valid: true}
	}

	err := d.QueryRowContext(ctx, d.rebind(`
        INSERT INTO reminder (key, text, user_id, user_tag, chat_id, remind_time, "offset", expired, job_context)
        VALUES (?,?,?,?,?,?,?,?,?)
        RETURNING id`),
		r.Key, r.Text, r.UserID, r.UserTag, r.ChatID, r.RemindTime, offset, r.Expired, jobContext,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reminder %q: %w", r.Key, err)
	}
	return nil
}

// FindReminder returns the newest matching reminder, or nil.
func (d *DB) FindReminder(ctx context.Context, f models.ReminderFilter) (*models.Reminder, error) {
	where, args := reminderWhere(f)
	row := d.QueryRowContext(ctx, d.rebind(
		`SELECT `+reminderColumns+` FROM reminder`+where+` ORDER BY id DESC LIMIT 1`), args...)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReminders returns matching reminders ordered by remind time.
func (d *DB) ListReminders(ctx context.Context, f models.ReminderFilter) ([]models.Reminder, error) {
	where, args := reminderWhere(f)
	rows, err := d.QueryContext(ctx, d.rebind(
		`SELECT `+reminderColumns+` FROM reminder`+where+` ORDER BY remind_time, id`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *r)
	}
	return res, rows.Err()
}

// ExpireReminder flags the reminder with key as delivered. It reports
// false when no row carries that key.
func (d *DB) ExpireReminder(ctx context.Context, key string) (bool, error) {
	res, err := d.ExecContext(ctx, d.rebind(`UPDATE reminder SET expired = ? WHERE key = ?`), true, key)
	if err != nil {
		return false, fmt.Errorf("expire reminder %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteReminder removes the newest reminder matching f and returns it,
// or nil when nothing matched.
func (d *DB) DeleteReminder(ctx context.Context, f models.ReminderFilter) (*models.Reminder, error) {
	if f == (models.ReminderFilter{}) {
		return nil, ErrEmptyFilter
	}
	r, err := d.FindReminder(ctx, f)
	if err != nil || r == nil {
		return nil, err
	}
	if _, err := d.ExecContext(ctx, d.rebind(`DELETE FROM reminder WHERE id = ?`), r.ID); err != nil {
		return nil, fmt.Errorf("delete reminder %d: %w", r.ID, err)
	}
	return r, nil
}

func reminderWhere(f models.ReminderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ID != 0 {
		conds, args = append(conds, "id = ?"), append(args, f.ID)
	}
	if f.Key != "" {
		conds, args = append(conds, "key = ?"), append(args, f.Key)
	}
	if f.Text != "" {
		conds, args = append(conds, "text = ?"), append(args, f.Text)
	}
	if f.UserID != 0 {
		conds, args = append(conds, "user_id = ?"), append(args, f.UserID)
	}
	if f.Expired != nil {
		conds, args = append(conds, "expired = ?"), append(args, *f.Expired)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (*models.Reminder, error) {
	var (
		r          models.Reminder
		offset     sql.NullInt64
		jobContext sql.NullString
	)
	err := s.Scan(&r.ID, &r.Key, &r.Text, &r.UserID, &r.UserTag, &r.ChatID,
		&r.RemindTime, &offset, &r.Expired, &jobContext)
	if err != nil {
		return nil, err
	}
	if offset.Valid {
		o := int(offset.Int64)
		r.Offset = &o
	}
	if jobContext.Valid {
		r.JobContext = []byte(jobContext.String)
	}
	return &r, nil
}
