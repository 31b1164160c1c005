// Package identity is the identity service: it owns user records and answers
// user.exists for the other services.
package identity

import (
	"context"
	"time"

	"github.com/next-trace/scg-rideshare/contract/topics"
)

// User is an account. Only drivers carry a non-nil IsApproved.
type User struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	FullName        string      `json:"fullName"`
	UniversityID    string      `json:"universityId"`
	Role            topics.Role `json:"role"`
	IsApproved      *bool       `json:"isApproved"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Store persists users. Lookups return a nil user and no error when nothing matches.
// Create fails with a Conflict kind when the email is already taken.
type Store interface {
	Create(ctx context.Context, u User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]User, error)
}
