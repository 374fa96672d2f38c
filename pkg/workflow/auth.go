package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/session"
	"github.com/Sternrassler/flowdesk/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Auth logs operators in and out.
type Auth struct {
	api     API
	session *session.Session
	logger  zerolog.Logger
}

// NewAuth creates the auth service. Credentials are kept in s.
func NewAuth(api API, s *session.Session) *Auth {
	return &Auth{
		api:     api,
		session: s,
		logger:  log.With().Str("component", "workflow").Str("resource", "auth").Logger(),
	}
}

// Login exchanges username and password for a token and stores it.
func (a *Auth) Login(ctx context.Context, username, password string) (*session.Credential, error) {
	if err := validation.Required(map[string]string{"username": username, "password": password}); err != nil {
		return nil, err
	}

	body := map[string]string{"username": username, "password": password}
	var result LoginResult
	if err := a.api.Call(client.WithoutAuth(ctx), http.MethodPost, BasePath+"/auth/login", body, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if result.Token == "" {
		return nil, errors.New("login: server returned no token")
	}

	cred, err := a.session.Login(ctx, result.Token, username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	a.logger.Info().
		Str("username", username).
		Time("expires_at", cred.ExpiresAt).
		Msg("Logged in")
	return cred, nil
}

// Logout tells the API the token is done, then clears it locally. The
// local credential is cleared even when the API call fails.
func (a *Auth) Logout(ctx context.Context) error {
	if _, err := a.session.Current(ctx); err == nil {
		if err := a.api.Call(ctx, http.MethodPost, BasePath+"/auth/logout", nil, nil); err != nil {
			a.logger.Warn().Err(err).Msg("Server-side logout failed")
		}
	}
	return a.session.Logout(ctx)
}

// Me returns the logged-in user.
func (a *Auth) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.api.Call(ctx, http.MethodGet, BasePath+"/auth/me", nil, &u); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &u, nil
}
