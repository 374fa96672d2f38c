package workflow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Sternrassler/flowdesk/internal/testutil"
	"github.com/Sternrassler/flowdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasks_ListFilter(t *testing.T) {
	mock := newMock(t)
	mock.SetHandler(http.MethodGet, "/api/v1/tasks", testutil.NewPagedHandler([]Task{{ID: "t-1", State: TaskAssigned}}))
	api, _ := newTestAPI(t, mock)

	page, err := NewTasks(api).List(context.Background(), TaskFilter{
		Assignee:          "alice",
		CandidateGroup:    "ops",
		ProcessInstanceID: "pi-9",
		State:             TaskAssigned,
	}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	q := mock.LastRequest().Query
	assert.Equal(t, "alice", q.Get("assignee"))
	assert.Equal(t, "ops", q.Get("candidateGroup"))
	assert.Equal(t, "pi-9", q.Get("processInstanceId"))
	assert.Equal(t, "assigned", q.Get("state"))
	assert.Equal(t, "20", q.Get("pageSize"))
}

func TestTasks_ListAllKeepsFilter(t *testing.T) {
	tasks := make([]Task, 150)
	for i := range tasks {
		tasks[i] = Task{ID: "t", CandidateGroups: []string{"ops"}}
	}

	mock := newMock(t)
	mock.SetHandler(http.MethodGet, "/api/v1/tasks", testutil.NewPagedHandler(tasks))
	api, _ := newTestAPI(t, mock)

	got, err := NewTasks(api).ListAll(context.Background(), TaskFilter{CandidateGroup: "ops"})
	require.NoError(t, err)
	assert.Len(t, got, 150)

	for _, r := range mock.Requests() {
		assert.Equal(t, "ops", r.Query.Get("candidateGroup"))
	}
	assert.Equal(t, 2, mock.GetRequestCount())
}

func TestTasks_ListRejectsUnknownState(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)

	_, err := NewTasks(api).List(context.Background(), TaskFilter{State: "lost"}, 1, 10)
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, mock.GetRequestCount())
}

func TestTasks_Actions(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		call     func(*Tasks) error
		wantBody string
	}{
		{
			name:     "assign",
			path:     "/api/v1/tasks/t-1/assign",
			call:     func(s *Tasks) error { return s.Assign(context.Background(), "t-1", "bob") },
			wantBody: `{"userId":"bob"}`,
		},
		{
			name: "claim",
			path: "/api/v1/tasks/t-1/claim",
			call: func(s *Tasks) error { return s.Claim(context.Background(), "t-1") },
		},
		{
			name:     "delegate",
			path:     "/api/v1/tasks/t-1/delegate",
			call:     func(s *Tasks) error { return s.Delegate(context.Background(), "t-1", "carol") },
			wantBody: `{"userId":"carol"}`,
		},
		{
			name: "complete",
			path: "/api/v1/tasks/t-1/complete",
			call: func(s *Tasks) error {
				return s.Complete(context.Background(), "t-1", map[string]any{"approved": true})
			},
			wantBody: `{"variables":{"approved":true}}`,
		},
		{
			name:     "complete without variables",
			path:     "/api/v1/tasks/t-1/complete",
			call:     func(s *Tasks) error { return s.Complete(context.Background(), "t-1", nil) },
			wantBody: `{"variables":{}}`,
		},
		{
			name: "unassign",
			path: "/api/v1/tasks/t-1/unassign",
			call: func(s *Tasks) error { return s.Unassign(context.Background(), "t-1") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.SetData(http.MethodPost, tt.path, nil)
			api, _ := newTestAPI(t, mock)

			require.NoError(t, tt.call(NewTasks(api)))

			req := mock.LastRequest()
			require.NotNil(t, req)
			assert.Equal(t, tt.path, req.Path)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(req.Body))
			} else {
				assert.Empty(t, req.Body)
			}
		})
	}
}

func TestTasks_MissingIDs(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)
	svc := NewTasks(api)
	ctx := context.Background()

	assert.EqualError(t, svc.Claim(ctx, ""), "task id is required")
	assert.EqualError(t, svc.Unassign(ctx, ""), "task id is required")
	assert.EqualError(t, svc.Complete(ctx, "", nil), "task id is required")
	assert.EqualError(t, svc.Assign(ctx, "t-1", ""), "user id is required")
	assert.EqualError(t, svc.Delegate(ctx, "t-1", ""), "user id is required")
	assert.ErrorIs(t, svc.Assign(ctx, "", "bob"), ErrMissingID)

	assert.Zero(t, mock.GetRequestCount())
}

func TestTasks_ActionError(t *testing.T) {
	mock := newMock(t)
	mock.SetResponse(http.MethodPost, "/api/v1/tasks/t-1/complete", testutil.NewErrorResponse(http.StatusConflict, "task already completed"))
	api, _ := newTestAPI(t, mock)

	err := NewTasks(api).Complete(context.Background(), "t-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete task t-1")
	assert.Contains(t, err.Error(), "task already completed")
}
