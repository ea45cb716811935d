package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/model"
)

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	now := db.timestamp()
	comment.ID = xid.New().String()
	comment.CreatedAt = fromNanos(now)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO comments (id, snippet_id, user_id, user_name, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.SnippetID, comment.UserID, comment.UserName, comment.Content, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating comment: %w", err)
	}
	return nil
}

func (db *DB) ListComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, snippet_id, user_id, user_name, content, created_at
		 FROM comments WHERE snippet_id = $1
		 ORDER BY created_at ASC, id ASC`, snippetID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing comments for %s: %w", snippetID, err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Comment, error) {
		var (
			c       model.Comment
			created int64
		)
		err := row.Scan(&c.ID, &c.SnippetID, &c.UserID, &c.UserName, &c.Content, &created)
		c.CreatedAt = fromNanos(created)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: listing comments for %s: %w", snippetID, err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

func (db *DB) DeleteCommentsBySnippet(ctx context.Context, snippetID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM comments WHERE snippet_id = $1`, snippetID); err != nil {
		return fmt.Errorf("postgres: deleting comments for %s: %w", snippetID, err)
	}
	return nil
}
