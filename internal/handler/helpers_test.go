package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecraft/internal/auth"
	"github.com/sakif/codecraft/internal/executor"
	"github.com/sakif/codecraft/internal/handler"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository/sqlite"
	"github.com/sakif/codecraft/internal/service"
	"github.com/sakif/codecraft/internal/stats"
	"github.com/sakif/codecraft/internal/webhook"
)

const (
	testJWTSecret     = "test-secret-at-least-16-chars!!"
	testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
)

// MockExecutor implements a fast, mock executor for handler testing without Docker overhead.
type MockExecutor struct {
	CapturedReq executor.Request
	ReturnRes   *executor.Result
	ReturnErr   error
}

func (m *MockExecutor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	m.CapturedReq = req
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

// testAPI is the full handler stack over an in-memory database.
type testAPI struct {
	router http.Handler
	db     *sqlite.DB
	users  *service.UserService
	tokens *auth.TokenService
	exec   *MockExecutor
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testJWTSecret, time.Hour)
	require.NoError(t, err)

	mock := &MockExecutor{}
	users := service.NewUserService(db, 16, time.Minute, logger)
	snippets := service.NewSnippetService(db, db, db, users, logger)
	stars := service.NewStarService(db, db, logger)
	execs := service.NewExecutionService(db, users, mock, logger)
	authSvc := service.NewAuthService(users, tokens, logger)

	verifier, err := webhook.NewVerifier(testWebhookSecret)
	require.NoError(t, err)
	relay := webhook.NewRelay(verifier, users, logger, func(string, string) {})

	snippetH := handler.NewSnippetHandler(snippets, stars, logger)
	execH := handler.NewExecuteHandler(execs, logger)
	statsH := handler.NewStatsHandler(stats.NewAggregator(db, db, db, logger))
	authH := handler.NewAuthHandler(nil, authSvc, tokens, false, logger)
	hookH := handler.NewWebhookHandler(relay, logger)

	required := auth.RequireAuth(tokens)
	optional := auth.OptionalAuth(tokens)

	r := chi.NewRouter()
	r.Get("/health", handler.HandleHealth(db))
	r.Post("/webhooks/identity", hookH.HandleIdentity)
	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", handler.HandleLanguages)
		r.With(required).Get("/me", authH.HandleMe)

		r.Get("/snippets", snippetH.HandleList)
		r.Get("/snippets/{id}", snippetH.HandleGet)
		r.With(required).Post("/snippets", snippetH.HandleCreate)
		r.With(optional).Delete("/snippets/{id}", snippetH.HandleDelete)
		r.With(required).Post("/snippets/{id}/star", snippetH.HandleToggleStar)
		r.With(optional).Get("/snippets/{id}/star", snippetH.HandleIsStarred)
		r.Get("/snippets/{id}/stars", snippetH.HandleStarCount)
		r.Get("/snippets/{id}/comments", snippetH.HandleListComments)
		r.With(required).Post("/snippets/{id}/comments", snippetH.HandleAddComment)

		r.With(required).Post("/executions", execH.HandleRecord)
		r.Get("/users/{id}/executions", execH.HandleList)
		r.Get("/users/{id}/stats", statsH.HandleStats)
		r.With(required).Post("/execute", execH.HandleExecute)
	})

	return &testAPI{router: r, db: db, users: users, tokens: tokens, exec: mock}
}

// login syncs a user and returns a bearer token for them.
func (a *testAPI) login(t *testing.T, externalID, name string) string {
	t.Helper()
	_, err := a.users.Sync(context.Background(), externalID, externalID+"@example.com", name)
	require.NoError(t, err)
	token, err := a.tokens.Generate(externalID)
	require.NoError(t, err)
	return token
}

// loginPro seeds a subscribed user straight into storage, then logs them in.
func (a *testAPI) loginPro(t *testing.T, externalID, name string) string {
	t.Helper()
	require.NoError(t, a.db.CreateUser(context.Background(), &model.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       name,
		IsPro:      true,
	}))
	return a.login(t, externalID, name)
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
