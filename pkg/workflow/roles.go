package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Roles administers roles.
type Roles struct {
	resource[Role]
}

// NewRoles creates the role service.
func NewRoles(api API) *Roles {
	return &Roles{resource: newResource[Role](api, "role", "roles")}
}

// Create validates in and creates a role.
func (s *Roles) Create(ctx context.Context, in RoleInput) (*Role, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Update validates in and replaces role id.
func (s *Roles) Update(ctx context.Context, id string, in RoleInput) (*Role, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, id, in)
}

// AssignToUser grants the role with code to userID.
func (s *Roles) AssignToUser(ctx context.Context, code, userID string) error {
	if !validation.IsCode(code) {
		return validation.FieldErrors{"code": "may only contain letters, digits, '_', '-' and '.'"}
	}
	if userID == "" {
		return fmt.Errorf("user %w", ErrMissingID)
	}

	path := BasePath + "/users/" + url.PathEscape(userID) + "/roles"
	if err := s.api.Call(ctx, http.MethodPost, path, map[string]string{"roleCode": code}, nil); err != nil {
		return fmt.Errorf("assign role %s to user %s: %w", code, userID, err)
	}
	s.logger.Info().Str("role", code).Str("user", userID).Msg("Role assigned")
	return nil
}
