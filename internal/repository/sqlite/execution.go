package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

const executionColumns = `id, user_id, language, code, output, error, created_at`

// CreateExecution appends an execution record. Records are never updated.
func (db *DB) CreateExecution(ctx context.Context, exec *model.Execution) error {
	now := db.timestamp()
	exec.ID = xid.New().String()
	exec.CreatedAt = fromNanos(now)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO executions (`+executionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.UserID, exec.Language, exec.Code, exec.Output, exec.Error, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating execution: %w", err)
	}
	return nil
}

// ListExecutions pages through a user's executions by keyset on
// (created_at, id). Rows inserted after the first page was read are newer
// than every cursor handed out, so they never shift later pages.
func (db *DB) ListExecutions(ctx context.Context, userID, cursor string, limit int) (*model.ExecutionPage, error) {
	limit = repository.ClampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		rows, err = db.conn.QueryContext(ctx,
			`SELECT `+executionColumns+` FROM executions
			 WHERE user_id = ?
			 ORDER BY created_at DESC, id DESC LIMIT ?`,
			userID, limit+1)
	} else {
		c, derr := repository.DecodeCursor(cursor)
		if derr != nil {
			return nil, derr
		}
		rows, err = db.conn.QueryContext(ctx,
			`SELECT `+executionColumns+` FROM executions
			 WHERE user_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))
			 ORDER BY created_at DESC, id DESC LIMIT ?`,
			userID, c.CreatedAt, c.CreatedAt, c.ID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing executions for %s: %w", userID, err)
	}

	execs, err := scanExecutions(rows)
	if err != nil {
		return nil, err
	}

	page := &model.ExecutionPage{Executions: execs}
	if len(execs) > limit {
		page.Executions = execs[:limit]
		last := page.Executions[limit-1]
		page.NextCursor = repository.EncodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// ListAllExecutions returns every execution of the user, oldest first.
func (db *DB) ListAllExecutions(ctx context.Context, userID string) ([]model.Execution, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM executions
		 WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing executions for %s: %w", userID, err)
	}
	return scanExecutions(rows)
}

func scanExecutions(rows *sql.Rows) ([]model.Execution, error) {
	defer rows.Close()

	execs := []model.Execution{}
	for rows.Next() {
		var (
			e              model.Execution
			output, errMsg sql.NullString
			created        int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Language, &e.Code, &output, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning execution row: %w", err)
		}
		if output.Valid {
			e.Output = &output.String
		}
		if errMsg.Valid {
			e.Error = &errMsg.String
		}
		e.CreatedAt = fromNanos(created)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating execution rows: %w", err)
	}
	return execs, nil
}
