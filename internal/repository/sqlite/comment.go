package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/codecraft/internal/model"
)

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	now := db.timestamp()
	comment.ID = xid.New().String()
	comment.CreatedAt = fromNanos(now)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, snippet_id, user_id, user_name, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.SnippetID, comment.UserID, comment.UserName, comment.Content, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}
	return nil
}

func (db *DB) ListComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, snippet_id, user_id, user_name, content, created_at
		 FROM comments WHERE snippet_id = ?
		 ORDER BY created_at ASC, id ASC`, snippetID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var (
			c       model.Comment
			created int64
		)
		if err := rows.Scan(&c.ID, &c.SnippetID, &c.UserID, &c.UserName, &c.Content, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		c.CreatedAt = fromNanos(created)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comment rows: %w", err)
	}
	return comments, nil
}

// DeleteCommentsBySnippet is a no-op when the snippet has no comments.
func (db *DB) DeleteCommentsBySnippet(ctx context.Context, snippetID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE snippet_id = ?`, snippetID); err != nil {
		return fmt.Errorf("sqlite: deleting comments for %s: %w", snippetID, err)
	}
	return nil
}
