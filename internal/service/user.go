package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// Cache defaults used when NewUserService is given non-positive values.
const (
	DefaultUserCacheSize = 1024
	DefaultUserCacheTTL  = time.Minute
)

// UserService owns the local user records mirrored from identity providers.
//
// GetByExternalID is served from a small expiring LRU and may return a stale
// record; it is meant for display names. Current always reads the repository
// and is what tier and profile checks use.
type UserService struct {
	repo   repository.UserRepository
	cache  *expirable.LRU[string, *model.User]
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *UserService {
	if cacheSize <= 0 {
		cacheSize = DefaultUserCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultUserCacheTTL
	}
	return &UserService{
		repo:   repo,
		cache:  expirable.NewLRU[string, *model.User](cacheSize, nil, cacheTTL),
		logger: logger,
	}
}

// Sync makes sure a user row exists for externalID and returns it.
//
// It is idempotent: an existing row is returned unchanged, and a missing one
// is inserted with IsPro false. When two deliveries race, the loser's insert
// hits the unique constraint and re-reads the winner's row.
func (s *UserService) Sync(ctx context.Context, externalID, email, name string) (*model.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperror.ValidationFailed("externalId", "external id is required")
	}

	existing, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err == nil {
		s.cache.Add(externalID, existing)
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/user: looking up %s: %w", externalID, err)
	}

	user := &model.User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		IsPro:      false,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/user: creating %s: %w", externalID, err)
		}
		s.logger.Debug("user created concurrently, re-reading", slog.String("external_id", externalID))
		winner, err := s.repo.GetUserByExternalID(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("service/user: re-reading %s: %w", externalID, err)
		}
		user = winner
	} else {
		s.logger.Info("user created", slog.String("external_id", externalID), slog.String("id", user.ID))
	}

	s.cache.Add(externalID, user)
	return user, nil
}

// GetByExternalID returns the user for an external id, or apperror.ErrNotFound.
func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	if externalID == "" {
		return nil, apperror.NotFound("user", externalID)
	}
	if u, ok := s.cache.Get(externalID); ok {
		return u, nil
	}

	u, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(externalID, u)
	return u, nil
}

// Current reads the user for an external id straight from the repository.
func (s *UserService) Current(ctx context.Context, externalID string) (*model.User, error) {
	if externalID == "" {
		return nil, apperror.NotFound("user", externalID)
	}
	u, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(externalID, u)
	return u, nil
}
