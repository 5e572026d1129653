package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateJoinToken returns a fresh single-slot join token in the
// proj_qr_<32 hex> format clients already scan.
func GenerateJoinToken() (string, error) {
	buf := make([]byte, 16)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join token: %w", err)
	}

	return "proj_qr_" + hex.EncodeToString(buf), nil
}

// RenderTokenQR renders the token as a PNG data URL for direct embedding.
func RenderTokenQR(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, 300)

	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
