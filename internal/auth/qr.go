package auth

import (
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// PrintQR renders content as a half-block QR code suitable for terminal
// display.
func PrintQR(w io.Writer, content string) error {
	code, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}
	_, err = io.WriteString(w, code.ToSmallString(false))
	return err
}

// WriteQRFile writes content as a QR code PNG for terminals that cannot
// render the half-block version.
func WriteQRFile(path, content string) error {
	return qrcode.WriteFile(content, qrcode.Medium, 512, path)
}
