package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

// createTestUser inserts a user with the given external id and fails the test on error.
func createTestUser(t *testing.T, db *DB, externalID string, isPro bool) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       "User " + externalID,
		IsPro:      isPro,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{ExternalID: "user_123", Email: "ada@example.com", Name: "Ada Lovelace"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
}

func TestCreateUser_DuplicateExternalID(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "user_dup", false)

	err := db.CreateUser(context.Background(), &model.User{ExternalID: "user_dup"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetUserByExternalID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "user_abc", true)

	got, err := db.GetUserByExternalID(context.Background(), "user_abc")
	if err != nil {
		t.Fatalf("GetUserByExternalID() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.Email != "user_abc@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
	if !got.IsPro {
		t.Error("IsPro = false, want true")
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetUserByExternalID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByExternalID(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "user_xyz", false)

	got, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.ExternalID != "user_xyz" {
		t.Errorf("ExternalID = %q, want %q", got.ExternalID, "user_xyz")
	}

	if _, err := db.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}
