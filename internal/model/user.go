// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the local record of an identity issued by an external provider.
//
// ExternalID is the provider's subject (for example "user_2abc..." from the
// hosted identity service, or "github_1234567" for GitHub logins). It is
// UNIQUE in the database, so repeated sync deliveries can never create a
// second row for the same person. Snippets, stars and executions reference
// users by ExternalID, because that is what an authenticated request carries.
type User struct {
	ID         string    `json:"id"         db:"id"`
	ExternalID string    `json:"externalId" db:"external_id"`
	Email      string    `json:"email"      db:"email"`
	Name       string    `json:"name"       db:"name"`
	IsPro      bool      `json:"isPro"      db:"is_pro"` // subscription flag consulted by the tier gate
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}
