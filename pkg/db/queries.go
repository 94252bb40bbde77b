package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"marketboard/pkg/market/hsx"
)

// SaveSession upserts the persisted session token for a terminal.
func (d *Database) SaveSession(ctx context.Context, terminalID, token string) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO sessions (terminal_id, token, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(terminal_id) DO UPDATE SET
			token = excluded.token,
			updated_at = CURRENT_TIMESTAMP
	`, terminalID, token)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession returns the persisted token for a terminal, or "" when none.
func (d *Database) GetSession(ctx context.Context, terminalID string) (string, error) {
	var token string
	err := d.DB.QueryRowContext(ctx,
		"SELECT token FROM sessions WHERE terminal_id = ?", terminalID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return token, nil
}

// DeleteSession removes the persisted token for a terminal.
func (d *Database) DeleteSession(ctx context.Context, terminalID string) error {
	if _, err := d.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE terminal_id = ?", terminalID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetOperatorByEmail fetches a local operator; nil when not found.
func (d *Database) GetOperatorByEmail(ctx context.Context, email string) (*Operator, error) {
	var op Operator
	err := d.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM operators WHERE email = ?
	`, email).Scan(&op.ID, &op.Email, &op.PasswordHash, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operator: %w", err)
	}
	return &op, nil
}

// UpsertOperator creates or updates a local operator by email.
func (d *Database) UpsertOperator(ctx context.Context, op Operator) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO operators (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(email) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at = CURRENT_TIMESTAMP
	`, op.ID, op.Email, op.PasswordHash)
	if err != nil {
		return fmt.Errorf("upsert operator: %w", err)
	}
	return nil
}

// SaveBoardSnapshot replaces the persisted board with the given rows so a
// restart starts from the last known prices instead of an empty board.
func (d *Database) SaveBoardSnapshot(ctx context.Context, rows []hsx.SummaryRow) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM board_snapshots"); err != nil {
		return fmt.Errorf("clear board snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO board_snapshots (symbol, row_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", row.Symbol, err)
		}
		if _, err := stmt.ExecContext(ctx, row.Symbol, string(data)); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Symbol, err)
		}
	}
	return tx.Commit()
}

// LoadBoardSnapshot returns the persisted board rows, if any.
func (d *Database) LoadBoardSnapshot(ctx context.Context) ([]hsx.SummaryRow, error) {
	res, err := d.DB.QueryContext(ctx,
		"SELECT row_json FROM board_snapshots ORDER BY symbol ASC")
	if err != nil {
		return nil, fmt.Errorf("load board snapshot: %w", err)
	}
	defer res.Close()

	var rows []hsx.SummaryRow
	for res.Next() {
		var data string
		if err := res.Scan(&data); err != nil {
			return nil, err
		}
		var row hsx.SummaryRow
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, res.Err()
}
