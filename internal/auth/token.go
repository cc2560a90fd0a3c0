package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// refreshMargin is how close to expiry a token may get before Token refreshes
// it instead of returning it.
const refreshMargin = 30 * time.Second

// TokenSource hands out a valid access token for API calls, refreshing the
// stored session when it is stale. Safe for concurrent use; a refresh happens
// at most once no matter how many callers race for it.
type TokenSource struct {
	flow *Flow

	mu    sync.Mutex
	creds *Credentials
	stale bool
}

// NewTokenSource creates a token source backed by the given identity flow.
func NewTokenSource(flow *Flow) *TokenSource {
	return &TokenSource{flow: flow}
}

// Token returns a bearer token valid for at least refreshMargin.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		creds, err := LoadCredentials()
		if err != nil {
			return "", err
		}
		s.creds = creds
	}
	if !s.stale && s.creds.Valid(refreshMargin) {
		return s.creds.AccessToken, nil
	}
	return s.refreshLocked(ctx)
}

// refreshLocked exchanges the refresh token and persists the new session.
// Callers must hold s.mu.
func (s *TokenSource) refreshLocked(ctx context.Context) (string, error) {
	grant, err := s.flow.Refresh(ctx, s.creds.RefreshToken)
	if err != nil {
		return "", err
	}

	creds := CredentialsFromGrant(grant)
	if creds.RefreshToken == "" {
		// Providers may omit the refresh token on rotation; keep the old one.
		creds.RefreshToken = s.creds.RefreshToken
	}
	s.creds = creds
	s.stale = false

	if err := SaveCredentials(creds); err != nil {
		slog.Warn("failed to persist refreshed credentials", "error", err)
	}
	return creds.AccessToken, nil
}

// Invalidate marks the cached token stale so the next Token call refreshes it.
// Called when the backend rejects a token we believed was still valid.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Forget drops the in-memory session after a sign-out.
func (s *TokenSource) Forget() {
	s.mu.Lock()
	s.creds = nil
	s.stale = false
	s.mu.Unlock()
}

// KeepFresh refreshes the session in the background, waking at 80% of the
// token lifetime, until ctx is cancelled. It returns early when no session
// exists, so callers should start it only after sign-in.
func (s *TokenSource) KeepFresh(ctx context.Context) {
	for {
		timer := time.NewTimer(s.nextRefreshIn())
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}

		if _, err := s.Token(ctx); err != nil {
			if errors.Is(err, ErrNotLoggedIn) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			slog.Warn("background token refresh failed", "error", err)
		}
	}
}

func (s *TokenSource) nextRefreshIn() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil || s.creds.Expiry.IsZero() {
		return time.Minute
	}
	obtained := s.creds.ObtainedAt
	if obtained.IsZero() || obtained.After(s.creds.Expiry) {
		obtained = time.Now()
	}
	lifetime := s.creds.Expiry.Sub(obtained)
	wait := time.Until(obtained.Add(lifetime * 8 / 10))
	if wait < 10*time.Second {
		wait = 10 * time.Second
	}
	return wait
}
