package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// AESKeySize is the key length required for AES-256.
const AESKeySize = 32

// SecretCipher seals TOTP secrets before they reach the account store.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a cipher from a raw 32-byte key.
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != AESKeySize {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrInvalidEncryptionKeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}
	return &SecretCipher{aead: aead}, nil
}

// NewSecretCipherFromConfig decodes cfg.EncryptionKey.
// It returns ErrEncryptionKeyNotSet when no key is configured.
func NewSecretCipherFromConfig(cfg Config) (*SecretCipher, error) {
	key, err := GetEncryptionKey(cfg)
	if err != nil {
		return nil, err
	}
	return NewSecretCipher(key)
}

// Encrypt returns base64(nonce || ciphertext).
func (c *SecretCipher) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *SecretCipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidCipherTooShort)
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return string(plain), nil
}

// GenerateEncryptionKey creates a random 32-byte key.
func GenerateEncryptionKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateEncryptionKey, err)
	}
	return key, nil
}

// GenerateEncodedEncryptionKey returns a random key encoded for TOTP_ENCRYPTION_KEY.
func GenerateEncodedEncryptionKey() (string, error) {
	key, err := GenerateEncryptionKey()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// GetEncryptionKey decodes the base64 key from cfg.
func GetEncryptionKey(cfg Config) ([]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrEncryptionKeyNotSet)
	}
	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}
	if len(key) != AESKeySize {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrInvalidEncryptionKeyLength)
	}
	return key, nil
}
