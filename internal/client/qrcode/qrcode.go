// Package qrcode turns a login URL into something a phone can scan: a
// half-block text rendering for the terminal and an optional PNG file.
package qrcode

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/bililive/internal/filex"
	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// pngScale is the number of image pixels per QR module in exported PNGs.
const pngScale = 8

// Render encodes text as a QR code drawn with half blocks, two modules per
// character row, with a quiet zone of two modules.
func Render(text string) (string, error) {
	// qrterminal ignores encoding errors, so check first
	if _, err := qr.Encode(text, qr.L); err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	var buf bytes.Buffer
	qrterminal.GenerateWithConfig(text, qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         &buf,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      2,
	})
	return strings.TrimRight(buf.String(), "\n"), nil
}

// SavePNG writes text as a PNG QR image to path, creating parent
// directories as needed.
func SavePNG(path, text string) error {
	code, err := qr.Encode(text, qr.M)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	code.Scale = pngScale

	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, code.PNG(), 0o600); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}
