// Package service contains the business rules of the application.
//
// Handlers parse HTTP and call services; services validate input, enforce
// ownership and the subscription tier, and call repositories. Services never
// see HTTP types and return apperror values that the handler layer maps to
// status codes. Every service receives its dependencies as interfaces, so
// tests substitute in-memory fakes.
//
// A caller is identified by its external identity id (the token subject).
// An empty caller id means the request is anonymous.
package service

import (
	"context"

	"github.com/sakif/codecraft/internal/model"
)

// userLookup is the slice of UserService other services depend on.
type userLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	Current(ctx context.Context, externalID string) (*model.User, error)
}
