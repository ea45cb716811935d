package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/metrics"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// StarService is the per-user bookmark ledger.
type StarService struct {
	stars    repository.StarRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewStarService(stars repository.StarRepository, snippets repository.SnippetRepository, logger *slog.Logger) *StarService {
	return &StarService{stars: stars, snippets: snippets, logger: logger}
}

// Toggle stars the snippet if callerID has not, and unstars it otherwise.
// It returns whether the snippet is starred afterwards.
func (s *StarService) Toggle(ctx context.Context, callerID, snippetID string) (bool, error) {
	if callerID == "" {
		return false, apperror.Unauthenticated()
	}
	if _, err := s.snippets.GetSnippetByID(ctx, snippetID); err != nil {
		return false, fmt.Errorf("service/star: getting snippet %s: %w", snippetID, err)
	}

	existing, err := s.stars.GetStar(ctx, callerID, snippetID)
	switch {
	case err == nil:
		if err := s.stars.DeleteStar(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("service/star: unstarring %s: %w", snippetID, err)
		}
		metrics.StarsToggled.WithLabelValues("unstarred").Inc()
		return false, nil

	case errors.Is(err, apperror.ErrNotFound):
		star := &model.Star{UserID: callerID, SnippetID: snippetID}
		if err := s.stars.CreateStar(ctx, star); err != nil {
			// A concurrent toggle already inserted the same pair.
			if errors.Is(err, apperror.ErrConflict) {
				return true, nil
			}
			return false, fmt.Errorf("service/star: starring %s: %w", snippetID, err)
		}
		metrics.StarsToggled.WithLabelValues("starred").Inc()
		return true, nil

	default:
		return false, fmt.Errorf("service/star: looking up star on %s: %w", snippetID, err)
	}
}

// IsStarred reports whether callerID has starred the snippet. Anonymous
// callers get false, not an error.
func (s *StarService) IsStarred(ctx context.Context, callerID, snippetID string) (bool, error) {
	if callerID == "" {
		return false, nil
	}
	_, err := s.stars.GetStar(ctx, callerID, snippetID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("service/star: looking up star on %s: %w", snippetID, err)
}

// Count is recomputed from storage on every call.
func (s *StarService) Count(ctx context.Context, snippetID string) (int, error) {
	n, err := s.stars.CountStars(ctx, snippetID)
	if err != nil {
		return 0, fmt.Errorf("service/star: counting %s: %w", snippetID, err)
	}
	return n, nil
}
