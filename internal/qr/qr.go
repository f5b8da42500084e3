package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

var ErrNoLink = errors.New("event has no registration link")

// Generator renders registration links as QR PNGs so clients can share an
// event without typing the URL.
type Generator struct {
	size int
}

func NewGenerator() *Generator {
	return &Generator{size: defaultSize}
}

// RegistrationQR encodes the registration link as a PNG. Links are public, so
// the payload is the plain URL.
func (g *Generator) RegistrationQR(link string) ([]byte, error) {
	if link == "" {
		return nil, ErrNoLink
	}
	return qrcode.Encode(link, qrcode.Medium, g.size)
}
