package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/piichat/internal/core"
)

// Turns stores redacted conversation turns per session.
type Turns struct {
	db *sql.DB
}

func NewTurns(db *sql.DB) *Turns {
	return &Turns{db: db}
}

// AddTurns inserts all turns in one transaction, so an exchange is stored
// whole or not at all.
func (r *Turns) AddTurns(ctx context.Context, sessionID string, turns ...core.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO turns (session_id, role, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("invalid role %q", t.Role)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, string(t.Role), t.Content); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turns: %w", err)
	}
	return nil
}

// GetTurns returns the stored turns of a session in chronological order.
func (r *Turns) GetTurns(ctx context.Context, sessionID string) ([]core.Turn, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, content FROM turns WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, core.Turn{Role: core.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *Turns) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
