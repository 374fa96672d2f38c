package workflow

import (
	"context"

	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Users registers and lists operator accounts.
type Users struct {
	resource[User]
}

// NewUsers creates the user service.
func NewUsers(api API) *Users {
	return &Users{resource: newResource[User](api, "user", "users")}
}

// Create registers a user. Weak passwords are rejected locally.
func (s *Users) Create(ctx context.Context, in UserInput) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", u.ID).Str("username", u.Username).Msg("User registered")
	return u, nil
}
