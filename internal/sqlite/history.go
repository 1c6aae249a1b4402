package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/wmslite/pkg/types"
)

// History is the append-only audit log. It has no update or delete.
type History struct{}

// NewHistory creates a process history repository.
func NewHistory() *History {
	return &History{}
}

type historyRow struct {
	ID            int64          `db:"history_id"`
	OperationType string         `db:"operation_type"`
	SubOperation  string         `db:"sub_operation"`
	Status        string         `db:"status"`
	Details       sql.NullString `db:"details"`
	UserID        sql.NullString `db:"user_id"`
	CreatedAt     string         `db:"created_at"`
}

func (r historyRow) hydrate() (types.ProcessHistoryEntry, error) {
	ts, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.ProcessHistoryEntry{}, fmt.Errorf("history entry %d: %w", r.ID, err)
	}
	return types.ProcessHistoryEntry{
		ID:            r.ID,
		OperationType: r.OperationType,
		SubOperation:  r.SubOperation,
		Status:        r.Status,
		Details:       r.Details.String,
		UserID:        r.UserID.String,
		Timestamp:     ts,
	}, nil
}

// LogProcess appends an audit entry and returns its ID.
func (r *History) LogProcess(ctx context.Context, q Querier, e types.NewProcessEntry) (int64, error) {
	if e.OperationType == "" || e.Status == "" {
		return 0, fmt.Errorf("%w: operation type and status are required", types.ErrInvalidArgument)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO process_history (operation_type, sub_operation, status, details, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.OperationType, e.SubOperation, e.Status, nullString(e.Details), nullString(e.UserID), now())
	if err != nil {
		return 0, mapExecErr(err, "logging process")
	}
	return res.LastInsertId()
}

// ListHistory returns audit entries newest first. A limit <= 0 returns all.
func (r *History) ListHistory(ctx context.Context, q Querier, limit int) ([]types.ProcessHistoryEntry, error) {
	query := `SELECT history_id, operation_type, sub_operation, status, details, user_id, created_at
		FROM process_history ORDER BY created_at DESC, history_id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []historyRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing process history: %w", err)
	}
	out := make([]types.ProcessHistoryEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.hydrate()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
