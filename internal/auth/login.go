package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ares-console/ares/internal/config"
)

// Login runs the device sign-in end to end: request a device code, show the
// verification URL with a scannable QR code, wait for approval, and persist
// the resulting session.
func Login(ctx context.Context, cfg config.IdentityConfig, out io.Writer) (*Credentials, error) {
	flow := NewFlow(cfg)

	grant, err := flow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sign-in: %w", err)
	}

	fmt.Fprintf(out, "To sign in, open:\n\n  %s\n\nand enter code: %s\n\n", grant.VerificationURL, grant.UserCode)
	if err := PrintQR(out, grant.VerificationURL); err == nil {
		fmt.Fprintln(out, "Or scan the QR code above with your phone.")
	}
	if dir, dirErr := config.Dir(); dirErr == nil {
		if mkErr := os.MkdirAll(dir, 0o700); mkErr == nil {
			qrPath := filepath.Join(dir, "login-qr.png")
			if writeErr := WriteQRFile(qrPath, grant.VerificationURL); writeErr == nil {
				fmt.Fprintf(out, "QR code also saved to: %s\n", qrPath)
			}
		}
	}
	fmt.Fprintln(out, "\nWaiting for approval...")

	token, err := flow.Wait(ctx, grant)
	if err != nil {
		return nil, err
	}

	creds := CredentialsFromGrant(token)
	if err := SaveCredentials(creds); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}
	return creds, nil
}
