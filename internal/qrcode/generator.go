// Package qrcode renders the reorder QR asset attached to an order's first
// delivery notice.
package qrcode

import (
	"fmt"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// Generator encodes reorder URLs as QR PNGs.
type Generator struct {
	baseURL string
}

// New constructs a Generator. baseURL is the public reorder endpoint, e.g.
// "https://shop.example.com".
func New(baseURL string) (*Generator, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return &Generator{baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Generate returns a PNG QR code pointing at the reorder page for ref.
func (g *Generator) Generate(ref string) ([]byte, error) {
	png, err := qr.Encode(fmt.Sprintf("%s/reorder/%s", g.baseURL, ref), qr.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
