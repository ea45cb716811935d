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

func (db *DB) GetStar(ctx context.Context, userID, snippetID string) (*model.Star, error) {
	var (
		s       model.Star
		created int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, snippet_id, created_at FROM stars
		 WHERE user_id = ? AND snippet_id = ?`, userID, snippetID,
	).Scan(&s.ID, &s.UserID, &s.SnippetID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("star", userID+"/"+snippetID)
		}
		return nil, fmt.Errorf("sqlite: getting star: %w", err)
	}
	s.CreatedAt = fromNanos(created)
	return &s, nil
}

// CreateStar returns apperror.ErrConflict if the pair is already starred.
func (db *DB) CreateStar(ctx context.Context, star *model.Star) error {
	now := db.timestamp()
	star.ID = xid.New().String()
	star.CreatedAt = fromNanos(now)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO stars (id, user_id, snippet_id, created_at) VALUES (?, ?, ?, ?)`,
		star.ID, star.UserID, star.SnippetID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("star", star.UserID+"/"+star.SnippetID)
		}
		return fmt.Errorf("sqlite: creating star: %w", err)
	}
	return nil
}

func (db *DB) DeleteStar(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM stars WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting star %s: %w", id, err)
	}
	return nil
}

func (db *DB) CountStars(ctx context.Context, snippetID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stars WHERE snippet_id = ?`, snippetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting stars for %s: %w", snippetID, err)
	}
	return n, nil
}

func (db *DB) DeleteStarsBySnippet(ctx context.Context, snippetID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM stars WHERE snippet_id = ?`, snippetID); err != nil {
		return fmt.Errorf("sqlite: deleting stars for %s: %w", snippetID, err)
	}
	return nil
}

// ListStarsByUser returns the user's stars in the order they were made.
func (db *DB) ListStarsByUser(ctx context.Context, userID string) ([]model.Star, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, snippet_id, created_at FROM stars
		 WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing stars for %s: %w", userID, err)
	}
	defer rows.Close()

	stars := []model.Star{}
	for rows.Next() {
		var (
			s       model.Star
			created int64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.SnippetID, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning star row: %w", err)
		}
		s.CreatedAt = fromNanos(created)
		stars = append(stars, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating star rows: %w", err)
	}
	return stars, nil
}
