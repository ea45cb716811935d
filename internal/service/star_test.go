package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

func newTestStarService(t *testing.T) (*StarService, *fakeStore, string) {
	t.Helper()
	store := newFakeStore()
	s := &model.Snippet{UserID: "owner", Title: "t", Language: "go"}
	require.NoError(t, store.CreateSnippet(context.Background(), s))
	return NewStarService(store, store, discardLogger()), store, s.ID
}

func TestStarToggle_Involution(t *testing.T) {
	svc, _, snippetID := newTestStarService(t)
	ctx := context.Background()

	before, err := svc.IsStarred(ctx, "alice", snippetID)
	require.NoError(t, err)

	starred, err := svc.Toggle(ctx, "alice", snippetID)
	require.NoError(t, err)
	assert.Equal(t, !before, starred)

	starred, err = svc.Toggle(ctx, "alice", snippetID)
	require.NoError(t, err)
	assert.Equal(t, before, starred)

	after, err := svc.IsStarred(ctx, "alice", snippetID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "two toggles restore the prior state")
}

func TestStarToggle_CountsPerUser(t *testing.T) {
	svc, _, snippetID := newTestStarService(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := svc.Toggle(ctx, u, snippetID)
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, "bob", snippetID)
	require.NoError(t, err)

	n, err := svc.Count(ctx, snippetID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStarToggle_Errors(t *testing.T) {
	svc, store, snippetID := newTestStarService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "", snippetID)
	assert.True(t, errors.Is(err, apperror.ErrUnauthenticated))

	_, err = svc.Toggle(ctx, "alice", "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	store.failOn["GetStar"] = errors.New("boom")
	_, err = svc.Toggle(ctx, "alice", snippetID)
	assert.Error(t, err)
}

func TestStarToggle_ConcurrentInsertIsStarred(t *testing.T) {
	svc, store, snippetID := newTestStarService(t)
	store.failOn["CreateStar"] = apperror.Conflict("star", "alice/"+snippetID)

	starred, err := svc.Toggle(context.Background(), "alice", snippetID)
	require.NoError(t, err)
	assert.True(t, starred)
}

func TestIsStarred_AnonymousIsFalse(t *testing.T) {
	svc, store, snippetID := newTestStarService(t)
	store.failOn["GetStar"] = errors.New("must not be called")

	starred, err := svc.IsStarred(context.Background(), "", snippetID)
	require.NoError(t, err)
	assert.False(t, starred)
	assert.Zero(t, store.calls["GetStar"])
}
