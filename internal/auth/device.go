package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ares-console/ares/internal/config"
)

const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"
const maxIdentityResponseBytes = 1 << 20

// ErrLoginExpired means the device code lapsed before the operator approved it.
var ErrLoginExpired = errors.New("sign-in expired before it was approved")

// ErrLoginDenied means the operator rejected the sign-in request.
var ErrLoginDenied = errors.New("sign-in request was denied")

// Flow drives the OAuth device authorization grant against the identity
// provider.
type Flow struct {
	issuer         string
	clientID       string
	scope          string
	deviceAuthPath string
	tokenPath      string
	httpClient     *http.Client
}

// NewFlow creates a flow from the identity section of the config.
func NewFlow(cfg config.IdentityConfig) *Flow {
	return &Flow{
		issuer:         strings.TrimRight(cfg.Issuer, "/"),
		clientID:       cfg.ClientID,
		scope:          cfg.Scope,
		deviceAuthPath: cfg.DeviceAuthPath,
		tokenPath:      cfg.TokenPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DeviceAuthorization is a pending sign-in the operator must approve from
// another device.
type DeviceAuthorization struct {
	DeviceCode      string
	UserCode        string
	VerificationURL string
	Interval        time.Duration
	ExpiresAt       time.Time
}

// TokenGrant is the identity provider's token response.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

type deviceCodeResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	Interval                int64  `json:"interval"`
	ExpiresIn               int64  `json:"expires_in"`
}

type identityErrorResponse struct {
	status      int
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Interval    int64  `json:"interval"`
}

func (e identityErrorResponse) message() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d", e.status)
	}
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Begin requests a device code from the identity provider.
func (f *Flow) Begin(ctx context.Context) (DeviceAuthorization, error) {
	if f.clientID == "" {
		return DeviceAuthorization{}, fmt.Errorf("identity clientId is not configured")
	}
	endpoint, err := f.endpoint(f.deviceAuthPath)
	if err != nil {
		return DeviceAuthorization{}, err
	}

	values := url.Values{}
	values.Set("client_id", f.clientID)
	if f.scope != "" {
		values.Set("scope", f.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("create device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("request device code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return DeviceAuthorization{}, fmt.Errorf("request device code: %s", decodeIdentityError(resp))
	}

	var payload deviceCodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityResponseBytes)).Decode(&payload); err != nil {
		return DeviceAuthorization{}, fmt.Errorf("decode device code response: %w", err)
	}

	verificationURL := payload.VerificationURI
	if payload.VerificationURIComplete != "" {
		verificationURL = payload.VerificationURIComplete
	}
	if payload.DeviceCode == "" || payload.UserCode == "" || verificationURL == "" {
		return DeviceAuthorization{}, fmt.Errorf("device code response missing required fields")
	}

	interval := payload.Interval
	if interval <= 0 {
		interval = 5
	}
	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 300
	}

	return DeviceAuthorization{
		DeviceCode:      payload.DeviceCode,
		UserCode:        payload.UserCode,
		VerificationURL: verificationURL,
		Interval:        time.Duration(interval) * time.Second,
		ExpiresAt:       time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// Wait polls the token endpoint until the operator approves or rejects the
// sign-in, the device code expires, or ctx is cancelled.
func (f *Flow) Wait(ctx context.Context, grant DeviceAuthorization) (*TokenGrant, error) {
	interval := grant.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := grant.ExpiresAt
	if deadline.IsZero() {
		deadline = time.Now().Add(5 * time.Minute)
	}

	for {
		if time.Now().After(deadline) {
			return nil, ErrLoginExpired
		}

		token, next, pending, err := f.pollOnce(ctx, grant.DeviceCode, interval)
		if err != nil {
			return nil, err
		}
		if !pending {
			return token, nil
		}
		if next > 0 {
			interval = next
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// pollOnce performs one token request for a pending device authorization.
// It reports whether the authorization is still pending and the interval to
// wait before the next attempt.
func (f *Flow) pollOnce(ctx context.Context, deviceCode string, interval time.Duration) (*TokenGrant, time.Duration, bool, error) {
	values := url.Values{}
	values.Set("grant_type", deviceGrantType)
	values.Set("client_id", f.clientID)
	values.Set("device_code", deviceCode)

	grant, identityErr, err := f.postToken(ctx, values)
	if err != nil {
		return nil, 0, false, err
	}
	if grant != nil {
		return grant, 0, false, nil
	}

	next := interval
	if identityErr.Interval > 0 {
		next = time.Duration(identityErr.Interval) * time.Second
	}
	switch identityErr.Code {
	case "authorization_pending":
		return nil, next, true, nil
	case "slow_down":
		return nil, next + 5*time.Second, true, nil
	case "expired_token":
		return nil, 0, false, ErrLoginExpired
	case "access_denied":
		return nil, 0, false, ErrLoginDenied
	}
	return nil, 0, false, fmt.Errorf("device sign-in failed: %s", identityErr.message())
}

// Refresh exchanges a refresh token for a new access token.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	if refreshToken == "" {
		return nil, ErrNotLoggedIn
	}

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("client_id", f.clientID)
	values.Set("refresh_token", refreshToken)

	grant, identityErr, err := f.postToken(ctx, values)
	if err != nil {
		return nil, err
	}
	if grant != nil {
		return grant, nil
	}
	if identityErr.Code == "invalid_grant" {
		return nil, fmt.Errorf("session expired, sign in again: %w", ErrNotLoggedIn)
	}
	return nil, fmt.Errorf("refresh session: %s", identityErr.message())
}

// postToken sends a form-encoded token request. Exactly one of the grant or
// the identity error is non-nil on a nil error.
func (f *Flow) postToken(ctx context.Context, values url.Values) (*TokenGrant, *identityErrorResponse, error) {
	endpoint, err := f.endpoint(f.tokenPath)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		var grant TokenGrant
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityResponseBytes)).Decode(&grant); err != nil {
			return nil, nil, fmt.Errorf("decode token response: %w", err)
		}
		if grant.AccessToken == "" {
			return nil, nil, fmt.Errorf("token response missing access token")
		}
		return &grant, nil, nil
	}

	var identityErr identityErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityResponseBytes)).Decode(&identityErr); err != nil {
		return nil, nil, fmt.Errorf("request token: status %d", resp.StatusCode)
	}
	identityErr.status = resp.StatusCode
	return nil, &identityErr, nil
}

// endpoint joins the issuer with a provider path, preserving any path prefix
// in the issuer URL.
func (f *Flow) endpoint(path string) (string, error) {
	if f.issuer == "" {
		return "", fmt.Errorf("identity issuer is not configured")
	}
	u, err := url.Parse(f.issuer)
	if err != nil {
		return "", fmt.Errorf("invalid issuer URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported issuer scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("issuer URL missing host")
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/") + path, nil
}

func decodeIdentityError(resp *http.Response) string {
	var identityErr identityErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityResponseBytes)).Decode(&identityErr); err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	identityErr.status = resp.StatusCode
	return identityErr.message()
}
