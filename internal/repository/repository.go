// Package repository declares the storage ports the service layer depends on.
//
// Every backend (sqlite, postgres) implements all of them on a single DB type,
// so method names carry the entity they operate on.
package repository

import (
	"context"

	"github.com/sakif/codecraft/internal/model"
)

// Page size bounds for cursor listings.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type UserRepository interface {
	// CreateUser inserts a user. A duplicate ExternalID yields apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error
	GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error)
	// ListSnippets returns every snippet, newest first.
	ListSnippets(ctx context.Context) ([]model.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListComments returns a snippet's comments, oldest first.
	ListComments(ctx context.Context, snippetID string) ([]model.Comment, error)
	DeleteCommentsBySnippet(ctx context.Context, snippetID string) error
}

type StarRepository interface {
	// GetStar returns apperror.ErrNotFound when the user has not starred the snippet.
	GetStar(ctx context.Context, userID, snippetID string) (*model.Star, error)
	CreateStar(ctx context.Context, star *model.Star) error
	DeleteStar(ctx context.Context, id string) error
	CountStars(ctx context.Context, snippetID string) (int, error)
	DeleteStarsBySnippet(ctx context.Context, snippetID string) error
	ListStarsByUser(ctx context.Context, userID string) ([]model.Star, error)
}

type ExecutionRepository interface {
	CreateExecution(ctx context.Context, exec *model.Execution) error
	// ListExecutions returns one page of a user's executions, newest first,
	// starting after cursor (empty for the first page).
	ListExecutions(ctx context.Context, userID, cursor string, limit int) (*model.ExecutionPage, error)
	// ListAllExecutions returns every execution of a user, oldest first.
	ListAllExecutions(ctx context.Context, userID string) ([]model.Execution, error)
}

// Store is the full set of ports a storage backend provides.
type Store interface {
	UserRepository
	SnippetRepository
	CommentRepository
	StarRepository
	ExecutionRepository
	Close() error
}

// ClampLimit applies DefaultLimit and MaxLimit to a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
