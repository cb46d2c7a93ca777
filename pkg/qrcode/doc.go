// Package qrcode renders provisioning URIs as PNG QR codes, either as raw bytes or as a
// data URI that can be placed straight into an <img> tag.
//
//	r := qrcode.NewRenderer(qrcode.WithSize(240))
//	src, err := r.Render("otpauth://totp/SecureKey:jane@example.com?secret=...&issuer=SecureKey")
//	// src == "data:image/png;base64,iVBORw0..."
//
// Generation is delegated to github.com/skip2/go-qrcode. Failures wrap
// ErrorFailedToGenerateQRCode; empty content yields ErrEmptyContent.
package qrcode
