package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/flowdesk/internal/testutil"
	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/session"
	"github.com/stretchr/testify/require"
)

// newTestAPI returns a client for mock with alice logged in.
func newTestAPI(t *testing.T, mock *testutil.MockAPI) (*client.Client, *session.Session) {
	t.Helper()

	s := session.New(session.NewMemoryStore())
	_, err := s.Login(context.Background(), "tok-alice", "alice")
	require.NoError(t, err)

	cfg := client.DefaultConfig(mock.URL(), "flowdesk-test/1.0")
	cfg.Session = s
	cfg.InitialBackoff = time.Millisecond
	c, err := client.New(cfg)
	require.NoError(t, err)
	return c, s
}

func newMock(t *testing.T) *testutil.MockAPI {
	t.Helper()
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)
	return mock
}
