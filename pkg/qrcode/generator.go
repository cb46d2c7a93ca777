package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent             = errors.New("content cannot be empty")
	ErrorFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

const (
	defaultSize   = 256
	dataURIPrefix = "data:image/png;base64,"
)

// Renderer produces QR images with a fixed size and error-correction level.
type Renderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image width and height in pixels. Non-positive values are ignored.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithHighRecovery trades density for resilience against damaged or partially hidden codes.
func WithHighRecovery() Option {
	return func(r *Renderer) {
		r.level = skipqrcode.High
	}
}

// NewRenderer creates a Renderer with 256px images and medium recovery.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{size: defaultSize, level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PNG encodes content as a PNG image.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrorFailedToGenerateQRCode, err)
	}
	return png, nil
}

// Render encodes content and returns it as a base64 PNG data URI.
func (r *Renderer) Render(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateBase64Image renders content at size with default settings.
func GenerateBase64Image(content string, size int) (string, error) {
	return NewRenderer(WithSize(size)).Render(content)
}
