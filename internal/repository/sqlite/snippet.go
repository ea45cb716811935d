package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

const snippetColumns = `id, user_id, user_name, title, language, code, created_at`

// CreateSnippet inserts snippet, setting its ID and CreatedAt in place.
func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	now := db.timestamp()
	snippet.ID = xid.New().String()
	snippet.CreatedAt = fromNanos(now)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID, snippet.UserID, snippet.UserName, snippet.Title,
		snippet.Language, snippet.Code, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}
	return nil
}

func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var (
		s       model.Snippet
		created int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.UserName, &s.Title, &s.Language, &s.Code, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	s.CreatedAt = fromNanos(created)
	return &s, nil
}

// ListSnippets returns all snippets, newest first.
func (db *DB) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var (
			s       model.Snippet
			created int64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.Title, &s.Language, &s.Code, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		s.CreatedAt = fromNanos(created)
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet rows: %w", err)
	}
	return snippets, nil
}

// DeleteSnippet removes only the snippet row. Comments and stars are cleared
// by the service before this is called.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}
