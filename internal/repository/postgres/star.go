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

func (db *DB) GetStar(ctx context.Context, userID, snippetID string) (*model.Star, error) {
	var (
		s       model.Star
		created int64
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, snippet_id, created_at FROM stars
		 WHERE user_id = $1 AND snippet_id = $2`, userID, snippetID,
	).Scan(&s.ID, &s.UserID, &s.SnippetID, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("star", userID+"/"+snippetID)
		}
		return nil, fmt.Errorf("postgres: getting star: %w", err)
	}
	s.CreatedAt = fromNanos(created)
	return &s, nil
}

func (db *DB) CreateStar(ctx context.Context, star *model.Star) error {
	now := db.timestamp()
	star.ID = xid.New().String()
	star.CreatedAt = fromNanos(now)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO stars (id, user_id, snippet_id, created_at) VALUES ($1, $2, $3, $4)`,
		star.ID, star.UserID, star.SnippetID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("star", star.UserID+"/"+star.SnippetID)
		}
		return fmt.Errorf("postgres: creating star: %w", err)
	}
	return nil
}

func (db *DB) DeleteStar(ctx context.Context, id string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM stars WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: deleting star %s: %w", id, err)
	}
	return nil
}

func (db *DB) CountStars(ctx context.Context, snippetID string) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stars WHERE snippet_id = $1`, snippetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: counting stars for %s: %w", snippetID, err)
	}
	return n, nil
}

func (db *DB) DeleteStarsBySnippet(ctx context.Context, snippetID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM stars WHERE snippet_id = $1`, snippetID); err != nil {
		return fmt.Errorf("postgres: deleting stars for %s: %w", snippetID, err)
	}
	return nil
}

func (db *DB) ListStarsByUser(ctx context.Context, userID string) ([]model.Star, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, snippet_id, created_at FROM stars
		 WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing stars for %s: %w", userID, err)
	}
	stars, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Star, error) {
		var (
			s       model.Star
			created int64
		)
		err := row.Scan(&s.ID, &s.UserID, &s.SnippetID, &created)
		s.CreatedAt = fromNanos(created)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: listing stars for %s: %w", userID, err)
	}
	if stars == nil {
		stars = []model.Star{}
	}
	return stars, nil
}
