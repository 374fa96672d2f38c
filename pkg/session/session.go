package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSkew expires credentials slightly early so a request never leaves
// with a token that dies in flight.
const DefaultSkew = 30 * time.Second

// Session is the explicit credential accessor handed to the API client.
type Session struct {
	store  Store
	skew   time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithSkew overrides DefaultSkew.
func WithSkew(skew time.Duration) Option {
	return func(s *Session) { s.skew = skew }
}

// New creates a Session over store.
func New(store Store, opts ...Option) *Session {
	if store == nil {
		panic("session store cannot be nil")
	}
	s := &Session{
		store:  store,
		skew:   DefaultSkew,
		now:    time.Now,
		logger: log.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login stores a credential for token and username.
func (s *Session) Login(ctx context.Context, token, username string) (*Credential, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}
	cred := NewCredential(token, username, s.now())
	if cred.ExpiredAt(s.now(), s.skew) {
		return nil, ErrCredentialExpired
	}
	if err := s.store.SetCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	s.logger.Info().
		Str("principal", username).
		Time("expires_at", cred.ExpiresAt).
		Msg("Credential stored")
	return cred, nil
}

// Current returns the stored credential if it is still valid. An expired
// credential is cleared and ErrCredentialExpired returned.
func (s *Session) Current(ctx context.Context) (*Credential, error) {
	cred, err := s.store.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.Token == "" {
		return nil, ErrNoCredential
	}
	if cred.ExpiredAt(s.now(), s.skew) {
		s.logger.Debug().
			Str("principal", cred.Username).
			Time("expires_at", cred.ExpiresAt).
			Msg("Credential expired, clearing")
		if err := s.store.ClearCredential(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to clear expired credential")
		}
		return nil, ErrCredentialExpired
	}
	return cred, nil
}

// Token returns the bearer token of the current credential.
func (s *Session) Token(ctx context.Context) (string, error) {
	cred, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

// Principal returns the username of the current credential, or "" when
// logged out. Used to scope cached responses.
func (s *Session) Principal(ctx context.Context) string {
	cred, err := s.Current(ctx)
	if err != nil {
		return ""
	}
	return cred.Username
}

// Logout clears the stored credential. Logging out twice is not an error.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.ClearCredential(ctx); err != nil && !errors.Is(err, ErrNoCredential) {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
