package totp

import "errors"

// Secret encryption.
var (
	ErrEncryptionKeyNotSet           = errors.New("totp: encryption key is not configured")
	ErrInvalidEncryptionKeyLength    = errors.New("totp: encryption key must be 32 bytes")
	ErrFailedToLoadEncryptionKey     = errors.New("totp: cannot load encryption key")
	ErrFailedToGenerateEncryptionKey = errors.New("totp: cannot generate encryption key")
	ErrFailedToEncryptSecret         = errors.New("totp: cannot seal secret")
	ErrFailedToDecryptSecret         = errors.New("totp: cannot open sealed secret")
	ErrInvalidCipherTooShort         = errors.New("totp: sealed secret is shorter than the nonce")
)

// Secrets and provisioning URIs.
var (
	ErrFailedToGenerateSecretKey = errors.New("totp: cannot generate secret")
	ErrMissingSecret             = errors.New("totp: secret is empty")
	ErrInvalidSecret             = errors.New("totp: secret is not valid base32")
	ErrMissingAccountName        = errors.New("totp: account name is empty")
	ErrMissingIssuer             = errors.New("totp: issuer is empty")
)
