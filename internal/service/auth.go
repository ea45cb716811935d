package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/auth"
	"github.com/sakif/codecraft/internal/model"
)

// userSyncer is the slice of UserService the login flow needs.
type userSyncer interface {
	userLookup
	Sync(ctx context.Context, externalID, email, name string) (*model.User, error)
}

// AuthService turns a completed GitHub login into a local user and a session
// token. GitHub identities go through the same idempotent Sync as webhook
// deliveries, under the external id "github_<id>".
type AuthService struct {
	users  userSyncer
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users userSyncer, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult is returned after a successful login.
type AuthResult struct {
	User  *model.User
	Token string
}

func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.Sync(ctx, ghUser.ExternalID(), ghUser.Email, ghUser.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("service/auth: syncing %s: %w", ghUser.ExternalID(), err)
	}

	token, err := s.tokens.Generate(user.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.ExternalID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("external_id", user.ExternalID),
		slog.String("login", ghUser.Login),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the caller's own user record.
func (s *AuthService) Me(ctx context.Context, callerID string) (*model.User, error) {
	if callerID == "" {
		return nil, apperror.Unauthenticated()
	}
	user, err := s.users.Current(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching %s: %w", callerID, err)
	}
	return user, nil
}
