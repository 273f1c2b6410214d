package storage

import (
	"context"

	"remindbot/internal/models"
)

// ---------- todos -----------------------------------------------------------

func (d *DB) CreateTodo(ctx context.Context, text string) (*models.Todo, error) {
	t := models.Todo{Text: text}
	err := d.QueryRowContext(ctx, d.rebind(`INSERT INTO todo (text, done) VALUES (?, ?) RETURNING id`),
		text, false).Scan(&t.ID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *DB) ListTodos(ctx context.Context, done bool) ([]models.Todo, error) {
	rows, err := d.QueryContext(ctx, d.rebind(`SELECT id, text, done FROM todo WHERE done = ? ORDER BY id`), done)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Done); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// CompleteTodo marks a pending todo as done. Already completed todos do not
// match, so a second call reports false.
func (d *DB) CompleteTodo(ctx context.Context, id int64) (bool, error) {
	res, err := d.ExecContext(ctx, d.rebind(`UPDATE todo SET done = ? WHERE id = ? AND done = ?`), true, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
