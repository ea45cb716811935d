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

const userColumns = `id, external_id, email, name, is_pro, created_at, updated_at`

// CreateUser inserts a new user row. external_id is UNIQUE, so a second
// insert for the same identity returns apperror.ErrConflict instead of a
// duplicate row.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.timestamp()
	user.ID = xid.New().String()
	user.CreatedAt = fromNanos(now)
	user.UpdatedAt = user.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.ExternalID, user.Email, user.Name, user.IsPro, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ExternalID)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ExternalID, err)
	}
	return nil
}

func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", externalID)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", externalID, err)
	}
	return u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
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
