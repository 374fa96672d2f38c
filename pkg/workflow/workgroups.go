package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Workgroups administers workgroups and their membership.
type Workgroups struct {
	resource[Workgroup]
}

// NewWorkgroups creates the workgroup service.
func NewWorkgroups(api API) *Workgroups {
	return &Workgroups{resource: newResource[Workgroup](api, "workgroup", "workgroups")}
}

// Create validates in and creates a workgroup.
func (s *Workgroups) Create(ctx context.Context, in WorkgroupInput) (*Workgroup, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Update validates in and replaces workgroup id.
func (s *Workgroups) Update(ctx context.Context, id string, in WorkgroupInput) (*Workgroup, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, id, in)
}

// AddMember puts userID into workgroup groupID.
func (s *Workgroups) AddMember(ctx context.Context, groupID, userID string) error {
	if err := s.requireID(groupID); err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("user %w", ErrMissingID)
	}

	body := map[string]string{"userId": userID}
	if err := s.api.Call(ctx, http.MethodPost, s.itemPath(groupID)+"/members", body, nil); err != nil {
		return fmt.Errorf("add member %s to workgroup %s: %w", userID, groupID, err)
	}
	s.logger.Info().Str("workgroup", groupID).Str("user", userID).Msg("Member added")
	return nil
}

// RemoveMember takes userID out of workgroup groupID.
func (s *Workgroups) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := s.requireID(groupID); err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("user %w", ErrMissingID)
	}

	path := s.itemPath(groupID) + "/members/" + url.PathEscape(userID)
	if err := s.api.Call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove member %s from workgroup %s: %w", userID, groupID, err)
	}
	s.logger.Info().Str("workgroup", groupID).Str("user", userID).Msg("Member removed")
	return nil
}
