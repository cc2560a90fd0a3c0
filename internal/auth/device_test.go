package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ares-console/ares/internal/config"
)

func identityConfig(issuer string) config.IdentityConfig {
	return config.IdentityConfig{
		Issuer:         issuer,
		ClientID:       "ares-console",
		Scope:          "openid profile ares.admin",
		DeviceAuthPath: "/oauth/device/code",
		TokenPath:      "/oauth/token",
	}
}

func TestFlowBegin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/device/code" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("client_id"); got != "ares-console" {
			t.Errorf("client_id = %q", got)
		}
		if got := r.PostFormValue("scope"); got != "openid profile ares.admin" {
			t.Errorf("scope = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"device_code": "dev-123",
			"user_code": "WXYZ-9876",
			"verification_uri": "https://id.example.com/activate",
			"verification_uri_complete": "https://id.example.com/activate?code=WXYZ-9876",
			"interval": 0,
			"expires_in": 600
		}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	grant, err := flow.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if grant.DeviceCode != "dev-123" {
		t.Errorf("device code = %q", grant.DeviceCode)
	}
	if grant.UserCode != "WXYZ-9876" {
		t.Errorf("user code = %q", grant.UserCode)
	}
	if grant.VerificationURL != "https://id.example.com/activate?code=WXYZ-9876" {
		t.Errorf("expected complete verification URL, got %q", grant.VerificationURL)
	}
	if grant.Interval != 5*time.Second {
		t.Errorf("expected default 5s interval, got %v", grant.Interval)
	}
	if until := time.Until(grant.ExpiresAt); until < 9*time.Minute {
		t.Errorf("expected expiry about 10 minutes out, got %v", until)
	}
}

func TestFlowBeginMissingIssuer(t *testing.T) {
	flow := NewFlow(config.IdentityConfig{ClientID: "ares-console"})
	if _, err := flow.Begin(context.Background()); err == nil {
		t.Fatal("expected error for missing issuer, got nil")
	}
}

func TestFlowBeginMissingClientID(t *testing.T) {
	flow := NewFlow(config.IdentityConfig{Issuer: "https://id.example.com"})
	if _, err := flow.Begin(context.Background()); err == nil {
		t.Fatal("expected error for missing client id, got nil")
	}
}

func TestFlowWaitPendingThenSuccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != deviceGrantType {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("device_code"); got != "dev-123" {
			t.Errorf("device_code = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "authorization_pending"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "at-1", "refresh_token": "rt-1", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	token, err := flow.Wait(context.Background(), DeviceAuthorization{
		DeviceCode: "dev-123",
		Interval:   10 * time.Millisecond,
		ExpiresAt:  time.Now().Add(5 * time.Second),
	})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if token.AccessToken != "at-1" || token.RefreshToken != "rt-1" {
		t.Errorf("unexpected token: %+v", token)
	}
	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 2 {
		t.Errorf("expected 2 token requests, got %d", got)
	}
}

func TestFlowWaitDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "access_denied"}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, err := flow.Wait(context.Background(), DeviceAuthorization{
		DeviceCode: "dev-123",
		Interval:   10 * time.Millisecond,
		ExpiresAt:  time.Now().Add(5 * time.Second),
	})
	if !errors.Is(err, ErrLoginDenied) {
		t.Fatalf("expected ErrLoginDenied, got %v", err)
	}
}

func TestFlowWaitExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "expired_token"}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, err := flow.Wait(context.Background(), DeviceAuthorization{
		DeviceCode: "dev-123",
		Interval:   10 * time.Millisecond,
		ExpiresAt:  time.Now().Add(5 * time.Second),
	})
	if !errors.Is(err, ErrLoginExpired) {
		t.Fatalf("expected ErrLoginExpired, got %v", err)
	}
}

func TestFlowWaitDeadlinePassed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, err := flow.Wait(context.Background(), DeviceAuthorization{
		DeviceCode: "dev-123",
		Interval:   10 * time.Millisecond,
		ExpiresAt:  time.Now().Add(-time.Second),
	})
	if !errors.Is(err, ErrLoginExpired) {
		t.Fatalf("expected ErrLoginExpired, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no token requests past the deadline, got %d", calls)
	}
}

func TestPollOnceSlowDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "slow_down"}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, next, pending, err := flow.pollOnce(context.Background(), "dev-123", 2*time.Second)
	if err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	if !pending {
		t.Error("expected authorization still pending")
	}
	if next != 7*time.Second {
		t.Errorf("expected interval bumped to 7s, got %v", next)
	}
}

func TestPollOnceServerInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "authorization_pending", "interval": 9}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, next, pending, err := flow.pollOnce(context.Background(), "dev-123", 2*time.Second)
	if err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	if !pending {
		t.Error("expected authorization still pending")
	}
	if next != 9*time.Second {
		t.Errorf("expected server-provided 9s interval, got %v", next)
	}
}

func TestFlowRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("refresh_token"); got != "rt-old" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "at-2", "refresh_token": "rt-2", "expires_in": 3600}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	grant, err := flow.Refresh(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if grant.AccessToken != "at-2" || grant.RefreshToken != "rt-2" {
		t.Errorf("unexpected grant: %+v", grant)
	}
}

func TestFlowRefreshInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid_grant", "error_description": "refresh token revoked"}`)
	}))
	defer srv.Close()

	flow := NewFlow(identityConfig(srv.URL))
	_, err := flow.Refresh(context.Background(), "rt-revoked")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestFlowRefreshEmptyToken(t *testing.T) {
	flow := NewFlow(identityConfig("https://id.example.com"))
	_, err := flow.Refresh(context.Background(), "")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLoginEndToEnd(t *testing.T) {
	testHome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/device/code":
			fmt.Fprint(w, `{
				"device_code": "dev-login",
				"user_code": "ABCD-1234",
				"verification_uri": "https://id.example.com/activate",
				"interval": 1,
				"expires_in": 60
			}`)
		case "/oauth/token":
			fmt.Fprint(w, `{"access_token": "at-login", "refresh_token": "rt-login", "expires_in": 3600}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	var out strings.Builder
	creds, err := Login(context.Background(), identityConfig(srv.URL), &out)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if creds.AccessToken != "at-login" {
		t.Errorf("access token = %q", creds.AccessToken)
	}

	if !strings.Contains(out.String(), "ABCD-1234") {
		t.Error("expected user code in login output")
	}
	if !strings.Contains(out.String(), "https://id.example.com/activate") {
		t.Error("expected verification URL in login output")
	}

	// The session must be on disk afterwards.
	loaded, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials after login: %v", err)
	}
	if loaded.AccessToken != "at-login" || loaded.RefreshToken != "rt-login" {
		t.Errorf("stored credentials mismatch: %+v", loaded)
	}
}
