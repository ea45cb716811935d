package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/language"
	"github.com/sakif/codecraft/internal/metrics"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// Validation limits.
const (
	MaxSnippetTitleLength = 100
	MaxCodeLength         = 100000
	MaxCommentLength      = 1000
)

// SnippetService manages snippets and the comments attached to them.
type SnippetService struct {
	snippets repository.SnippetRepository
	comments repository.CommentRepository
	stars    repository.StarRepository
	users    userLookup
	logger   *slog.Logger
}

func NewSnippetService(
	snippets repository.SnippetRepository,
	comments repository.CommentRepository,
	stars repository.StarRepository,
	users userLookup,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		comments: comments,
		stars:    stars,
		users:    users,
		logger:   logger,
	}
}

// Create saves a snippet owned by callerID. The owner's current display name
// is copied onto the snippet.
func (s *SnippetService) Create(ctx context.Context, callerID, title, lang, code string) (*model.Snippet, error) {
	if callerID == "" {
		return nil, apperror.Unauthenticated()
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if utf8.RuneCountInString(title) > MaxSnippetTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be at most %d characters", MaxSnippetTitleLength))
	}
	if _, ok := language.Lookup(lang); !ok {
		return nil, apperror.ValidationFailed("language", fmt.Sprintf("unsupported language %q", lang))
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be at most %d bytes", MaxCodeLength))
	}

	owner, err := s.users.GetByExternalID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: resolving owner: %w", err)
	}

	snippet := &model.Snippet{
		UserID:   callerID,
		UserName: owner.Name,
		Title:    title,
		Language: lang,
		Code:     code,
	}
	if err := s.snippets.CreateSnippet(ctx, snippet); err != nil {
		return nil, fmt.Errorf("service/snippet: creating: %w", err)
	}

	metrics.SnippetsCreated.WithLabelValues(lang).Inc()
	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", callerID),
		slog.String("language", lang),
	)
	return snippet, nil
}

func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}
	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: getting %s: %w", id, err)
	}
	return snippet, nil
}

// List returns every snippet, newest first.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListSnippets(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing: %w", err)
	}
	return snippets, nil
}

// Delete removes a snippet the caller owns, after its comments and stars.
//
// The three deletes are not one transaction. If a later step fails the
// snippet is left with fewer children than before, never children without a
// snippet, and calling Delete again finishes the job.
func (s *SnippetService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return apperror.Forbidden("you must be signed in to delete a snippet")
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/snippet: getting %s: %w", id, err)
	}
	if snippet.UserID != callerID {
		return apperror.Forbidden("only the owner can delete this snippet")
	}

	if err := s.comments.DeleteCommentsBySnippet(ctx, id); err != nil {
		return fmt.Errorf("service/snippet: deleting comments of %s: %w", id, err)
	}
	if err := s.stars.DeleteStarsBySnippet(ctx, id); err != nil {
		return fmt.Errorf("service/snippet: deleting stars of %s: %w", id, err)
	}
	if err := s.snippets.DeleteSnippet(ctx, id); err != nil {
		return fmt.Errorf("service/snippet: deleting %s: %w", id, err)
	}

	s.logger.Info("snippet deleted", slog.String("id", id), slog.String("owner", callerID))
	return nil
}

// AddComment attaches a comment by callerID to an existing snippet.
func (s *SnippetService) AddComment(ctx context.Context, callerID, snippetID, content string) (*model.Comment, error) {
	if callerID == "" {
		return nil, apperror.Unauthenticated()
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}

	if _, err := s.snippets.GetSnippetByID(ctx, snippetID); err != nil {
		return nil, fmt.Errorf("service/snippet: getting %s: %w", snippetID, err)
	}
	author, err := s.users.GetByExternalID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: resolving comment author: %w", err)
	}

	comment := &model.Comment{
		SnippetID: snippetID,
		UserID:    callerID,
		UserName:  author.Name,
		Content:   content,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/snippet: creating comment: %w", err)
	}
	return comment, nil
}

// ListComments returns a snippet's comments oldest first. An unknown snippet
// is apperror.ErrNotFound rather than an empty list.
func (s *SnippetService) ListComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	if _, err := s.snippets.GetSnippetByID(ctx, snippetID); err != nil {
		return nil, fmt.Errorf("service/snippet: getting %s: %w", snippetID, err)
	}
	comments, err := s.comments.ListComments(ctx, snippetID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing comments of %s: %w", snippetID, err)
	}
	return comments, nil
}
