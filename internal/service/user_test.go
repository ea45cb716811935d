package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

func newTestUserService(store *fakeStore) *UserService {
	return NewUserService(store, 16, time.Minute, discardLogger())
}

func TestUserSync_Idempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestUserService(store)
	ctx := context.Background()

	first, err := svc.Sync(ctx, "user_2abc", "ada@example.com", "Ada Lovelace")
	require.NoError(t, err)
	second, err := svc.Sync(ctx, "user_2abc", "ada@example.com", "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.users, 1)
	assert.Equal(t, 1, store.calls["CreateUser"])
	assert.False(t, first.IsPro, "new users start on the free tier")
}

func TestUserSync_KeepsExistingProfile(t *testing.T) {
	store := newFakeStore()
	store.addUser("user_1", "Original Name", true)
	svc := newTestUserService(store)

	u, err := svc.Sync(context.Background(), "user_1", "new@example.com", "New Name")
	require.NoError(t, err)
	assert.Equal(t, "Original Name", u.Name)
	assert.True(t, u.IsPro)
}

// racingStore reports "not found" on the first lookup, then loses the insert
// to a concurrent delivery.
type racingStore struct {
	*fakeStore
	lookups int
}

func (r *racingStore) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	r.lookups++
	if r.lookups == 1 {
		r.fakeStore.addUser(externalID, "Winner", false)
		return nil, apperror.NotFound("user", externalID)
	}
	return r.fakeStore.GetUserByExternalID(ctx, externalID)
}

func TestUserSync_UniqueRaceTreatedAsExisting(t *testing.T) {
	store := &racingStore{fakeStore: newFakeStore()}
	svc := NewUserService(store, 16, time.Minute, discardLogger())

	u, err := svc.Sync(context.Background(), "user_race", "x@example.com", "Loser")
	require.NoError(t, err)
	assert.Equal(t, "Winner", u.Name)
	assert.Len(t, store.users, 1)
}

func TestUserSync_Errors(t *testing.T) {
	t.Run("empty external id", func(t *testing.T) {
		svc := newTestUserService(newFakeStore())
		_, err := svc.Sync(context.Background(), "  ", "", "")
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		store := newFakeStore()
		store.failOn["CreateUser"] = errors.New("disk full")
		svc := newTestUserService(store)

		_, err := svc.Sync(context.Background(), "user_1", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestUserGetByExternalID_Cached(t *testing.T) {
	store := newFakeStore()
	store.addUser("user_1", "Ada", false)
	svc := newTestUserService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := svc.GetByExternalID(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.Name)
	}
	assert.Equal(t, 1, store.calls["GetUserByExternalID"])

	_, err := svc.GetByExternalID(ctx, "nobody")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUserCurrent_BypassesCache(t *testing.T) {
	store := newFakeStore()
	store.addUser("user_1", "Ada", false)
	svc := newTestUserService(store)
	ctx := context.Background()

	_, err := svc.GetByExternalID(ctx, "user_1")
	require.NoError(t, err)

	store.mu.Lock()
	store.users["user_1"].IsPro = true
	store.mu.Unlock()

	cached, err := svc.GetByExternalID(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, cached.IsPro)

	current, err := svc.Current(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, current.IsPro)
	assert.Equal(t, 2, store.calls["GetUserByExternalID"])

	_, err = svc.Current(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
