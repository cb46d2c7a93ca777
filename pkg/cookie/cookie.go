package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	minSecretLength = 32
	keyInfo         = "authcore-cookie-v1"
)

// Manager seals cookie values with AES-256-GCM and writes them with shared attributes.
// The first secret seals; every secret is tried when opening, so old cookies survive rotation.
type Manager struct {
	aeads    []cipher.AEAD
	defaults Attributes
}

func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	aeads := make([]cipher.AEAD, 0, len(secrets))
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		aead, err := newAEAD(s)
		if err != nil {
			return nil, err
		}
		aeads = append(aeads, aead)
	}

	defaults := Attributes{Path: "/"}.with(opts)

	return &Manager{aeads: aeads, defaults: defaults}, nil
}

// newAEAD derives a 256-bit key from secret with HKDF-SHA256.
func newAEAD(secret string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivation, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivation, err)
	}
	return cipher.NewGCM(block)
}

// Attributes returns the default cookie attributes.
func (m *Manager) Attributes() Attributes {
	return m.defaults
}

// Seal encrypts plaintext into a cookie-safe string: base64url(nonce || ciphertext).
func (m *Manager) Seal(plaintext []byte) (string, error) {
	aead := m.aeads[0]
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open reverses Seal, trying each configured secret.
func (m *Manager) Open(sealed string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	for _, aead := range m.aeads {
		ns := aead.NonceSize()
		if len(raw) < ns+aead.Overhead() {
			return nil, ErrInvalidFormat
		}
		if plain, err := aead.Open(nil, raw[:ns], raw[ns:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecryptionFailed
}

// Cookie builds the cookie for name/value with the default attributes plus opts.
func (m *Manager) Cookie(name, value string, opts ...Option) *http.Cookie {
	a := m.defaults.with(opts)
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     a.Path,
		Domain:   a.Domain,
		MaxAge:   a.MaxAge,
		Secure:   a.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds a cookie that makes the browser drop name immediately.
func (m *Manager) ExpiredCookie(name string) *http.Cookie {
	c := m.Cookie(name, "")
	c.MaxAge = -1 // serialized as Max-Age=0
	c.Expires = time.Unix(0, 0)
	return c
}

// SetCookieHeader returns the Set-Cookie header value for name/value.
func (m *Manager) SetCookieHeader(name, value string, opts ...Option) (string, error) {
	c := m.Cookie(name, value, opts...)
	if err := c.Valid(); err != nil {
		return "", errors.Join(ErrInvalidCookieName, err)
	}
	return c.String(), nil
}

// ClearCookieHeader returns the Set-Cookie header value that deletes name.
func (m *Manager) ClearCookieHeader(name string) string {
	return m.ExpiredCookie(name).String()
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	http.SetCookie(w, m.Cookie(name, value, opts...))
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.ExpiredCookie(name))
}

// SetEncrypted seals value and writes it as cookie name.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	sealed, err := m.Seal([]byte(value))
	if err != nil {
		return err
	}
	m.Set(w, name, sealed, opts...)
	return nil
}

// GetEncrypted reads and opens cookie name.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	sealed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	plain, err := m.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
