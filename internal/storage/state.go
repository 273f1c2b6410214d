package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ---------- persisted bot state ---------------------------------------------

// LoadState returns the JSON blob of the singleton state row, or nil when
// the bot never saved one.
func (d *DB) LoadState(ctx context.Context) ([]byte, error) {
	var info string
	err := d.QueryRowContext(ctx, `SELECT info FROM state ORDER BY id DESC LIMIT 1`).Scan(&info)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return []byte(info), nil
}

// SaveState replaces the state row. The connection is held for the whole
// replace and released on every path.
func (d *DB) SaveState(ctx context.Context, info []byte) (err error) {
	conn, err := d.Conn(ctx)
	if err != nil {
		return fmt.Errorf("save state: acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		return fmt.Errorf("save state: clear: %w", err)
	}
	if _, err = tx.ExecContext(ctx, d.rebind(`INSERT INTO state (info) VALUES (?)`), string(info)); err != nil {
		return fmt.Errorf("save state: insert: %w", err)
	}
	return tx.Commit()
}
