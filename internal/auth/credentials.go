// Package auth implements operator sign-in for the console: the OAuth device
// authorization flow against the identity provider, encrypted credential
// storage, and a refreshing token source for API calls.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ares-console/ares/internal/config"
	"github.com/ares-console/ares/internal/secrets"
)

const credentialsFile = "credentials.json"

// ErrNotLoggedIn is returned when no stored session exists or the stored
// session can no longer be refreshed.
var ErrNotLoggedIn = errors.New("not signed in, run 'ares login'")

// ErrNotAdmin is returned when the signed-in account lacks the admin role.
var ErrNotAdmin = errors.New("signed-in account lacks the admin role")

// Credentials is the stored operator session.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

// Valid reports whether the access token is usable for at least margin.
// A zero Expiry means the provider issued a non-expiring token.
func (c *Credentials) Valid(margin time.Duration) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return time.Until(c.Expiry) > margin
}

// CredentialsFromGrant converts a token response into storable credentials.
func CredentialsFromGrant(grant *TokenGrant) *Credentials {
	now := time.Now().UTC()
	creds := &Credentials{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    grant.TokenType,
		Scope:        grant.Scope,
		ObtainedAt:   now,
	}
	if grant.ExpiresIn > 0 {
		creds.Expiry = now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	return creds
}

// CredentialsPath returns the stored session path (~/.ares/credentials.json).
func CredentialsPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFile), nil
}

// LoadCredentials reads and decrypts the stored session. Returns
// ErrNotLoggedIn when no session exists.
func LoadCredentials() (*Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	plain, err := secrets.DecryptBlob(data)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &creds, nil
}

// SaveCredentials encrypts and writes the session to disk with owner-only
// permissions.
func SaveCredentials(creds *Credentials) error {
	if creds == nil || creds.AccessToken == "" {
		return fmt.Errorf("refusing to save empty credentials")
	}
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	plain, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	blob, err := secrets.EncryptBlob(plain)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}
	return os.WriteFile(path, blob, 0o600)
}

// ClearCredentials removes the stored session. A missing file is not an error.
func ClearCredentials() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
