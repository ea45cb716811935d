package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

const snippetColumns = `id, user_id, user_name, title, language, code, created_at`

func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	now := db.timestamp()
	snippet.ID = xid.New().String()
	snippet.CreatedAt = fromNanos(now)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO snippets (`+snippetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snippet.ID, snippet.UserID, snippet.UserName, snippet.Title,
		snippet.Language, snippet.Code, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}
	return nil
}

func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: getting snippet %s: %w", id, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSnippet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("postgres: getting snippet %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	snippets, err := pgx.CollectRows(rows, scanSnippet)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return snippets, nil
}

func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting snippet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

func scanSnippet(row pgx.CollectableRow) (model.Snippet, error) {
	var (
		s       model.Snippet
		created int64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.UserName, &s.Title, &s.Language, &s.Code, &created)
	s.CreatedAt = fromNanos(created)
	return s, err
}
