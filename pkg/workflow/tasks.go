package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/flowdesk/pkg/pagination"
	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Tasks is the task inbox.
type Tasks struct {
	resource[Task]
}

// NewTasks creates the task service.
func NewTasks(api API) *Tasks {
	return &Tasks{resource: newResource[Task](api, "task", "tasks")}
}

func (f TaskFilter) query() url.Values {
	q := url.Values{}
	if f.Assignee != "" {
		q.Set("assignee", f.Assignee)
	}
	if f.CandidateGroup != "" {
		q.Set("candidateGroup", f.CandidateGroup)
	}
	if f.ProcessInstanceID != "" {
		q.Set("processInstanceId", f.ProcessInstanceID)
	}
	if f.State != "" {
		q.Set("state", f.State)
	}
	return q
}

// List returns one server page of tasks matching filter.
func (s *Tasks) List(ctx context.Context, filter TaskFilter, page, pageSize int) (*pagination.Page[Task], error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}
	return s.list(ctx, filter.query(), page, pageSize)
}

// ListAll returns every task matching filter.
func (s *Tasks) ListAll(ctx context.Context, filter TaskFilter) ([]Task, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}
	return s.fetchAll(ctx, pagination.SourceFunc[Task](func(ctx context.Context, page, pageSize int) (*pagination.Page[Task], error) {
		return s.list(ctx, filter.query(), page, pageSize)
	}))
}

// Assign makes userID the assignee of taskID.
func (s *Tasks) Assign(ctx context.Context, taskID, userID string) error {
	if userID == "" {
		return fmt.Errorf("user %w", ErrMissingID)
	}
	return s.action(ctx, taskID, "assign", map[string]string{"userId": userID})
}

// Claim assigns taskID to the logged-in user.
func (s *Tasks) Claim(ctx context.Context, taskID string) error {
	return s.action(ctx, taskID, "claim", nil)
}

// Delegate hands taskID to userID while the owner keeps it.
func (s *Tasks) Delegate(ctx context.Context, taskID, userID string) error {
	if userID == "" {
		return fmt.Errorf("user %w", ErrMissingID)
	}
	return s.action(ctx, taskID, "delegate", map[string]string{"userId": userID})
}

// Complete finishes taskID with the given process variables.
func (s *Tasks) Complete(ctx context.Context, taskID string, variables map[string]any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	return s.action(ctx, taskID, "complete", map[string]any{"variables": variables})
}

// Unassign returns taskID to its candidate groups.
func (s *Tasks) Unassign(ctx context.Context, taskID string) error {
	return s.action(ctx, taskID, "unassign", nil)
}

func (s *Tasks) action(ctx context.Context, taskID, verb string, body any) error {
	if err := s.requireID(taskID); err != nil {
		return err
	}
	if err := s.api.Call(ctx, http.MethodPost, s.itemPath(taskID)+"/"+verb, body, nil); err != nil {
		return fmt.Errorf("%s task %s: %w", verb, taskID, err)
	}
	s.logger.Info().Str("task", taskID).Str("action", verb).Msg("Task updated")
	return nil
}
