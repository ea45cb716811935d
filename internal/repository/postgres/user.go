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

const userColumns = `id, external_id, email, name, is_pro, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.timestamp()
	user.ID = xid.New().String()
	user.CreatedAt = fromNanos(now)
	user.UpdatedAt = user.CreatedAt

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.ExternalID, user.Email, user.Name, user.IsPro, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ExternalID)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.ExternalID, err)
	}
	return nil
}

func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", externalID)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", externalID, err)
	}
	return u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u                model.User
		created, updated int64
	)
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.IsPro, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = fromNanos(created)
	u.UpdatedAt = fromNanos(updated)
	return &u, nil
}
