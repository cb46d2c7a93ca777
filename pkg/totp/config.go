package totp

// Config holds TOTP settings.
// EncryptionKey is optional; when set, secrets are sealed with AES-256-GCM before they are stored.
type Config struct {
	Issuer        string `env:"TOTP_ISSUER" envDefault:"SecureKey"`
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"` // base64-encoded 32-byte key
}
