package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

const executionColumns = `id, user_id, language, code, output, error, created_at`

func (db *DB) CreateExecution(ctx context.Context, exec *model.Execution) error {
	now := db.timestamp()
	exec.ID = xid.New().String()
	exec.CreatedAt = fromNanos(now)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO executions (`+executionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		exec.ID, exec.UserID, exec.Language, exec.Code, exec.Output, exec.Error, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating execution: %w", err)
	}
	return nil
}

func (db *DB) ListExecutions(ctx context.Context, userID, cursor string, limit int) (*model.ExecutionPage, error) {
	limit = repository.ClampLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if cursor == "" {
		rows, err = db.pool.Query(ctx,
			`SELECT `+executionColumns+` FROM executions
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC LIMIT $2`,
			userID, limit+1)
	} else {
		c, derr := repository.DecodeCursor(cursor)
		if derr != nil {
			return nil, derr
		}
		rows, err = db.pool.Query(ctx,
			`SELECT `+executionColumns+` FROM executions
			 WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC LIMIT $4`,
			userID, c.CreatedAt, c.ID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: listing executions for %s: %w", userID, err)
	}
	execs, err := collectExecutions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing executions for %s: %w", userID, err)
	}

	page := &model.ExecutionPage{Executions: execs}
	if len(execs) > limit {
		page.Executions = execs[:limit]
		last := page.Executions[limit-1]
		page.NextCursor = repository.EncodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

func (db *DB) ListAllExecutions(ctx context.Context, userID string) ([]model.Execution, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+executionColumns+` FROM executions
		 WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing executions for %s: %w", userID, err)
	}
	execs, err := collectExecutions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing executions for %s: %w", userID, err)
	}
	return execs, nil
}

func collectExecutions(rows pgx.Rows) ([]model.Execution, error) {
	execs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Execution, error) {
		var (
			e       model.Execution
			created int64
		)
		err := row.Scan(&e.ID, &e.UserID, &e.Language, &e.Code, &e.Output, &e.Error, &created)
		e.CreatedAt = fromNanos(created)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	if execs == nil {
		execs = []model.Execution{}
	}
	return execs, nil
}
