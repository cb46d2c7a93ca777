// Package totp implements RFC 6238 time-based one-time passwords on top of the
// RFC 4226 HOTP construction (HMAC-SHA1, dynamic truncation, 6 digits, 30 second steps).
//
// An Engine generates enrollment secrets with their otpauth:// provisioning URI and
// verifies submitted codes against the current step and one step on either side.
// The clock is injectable so verification is deterministic under test.
//
// SecretCipher seals stored secrets with AES-256-GCM when TOTP_ENCRYPTION_KEY is configured.
//
// # Usage
//
//	engine := totp.NewEngine(totp.WithIssuer("SecureKey"))
//
//	secret, err := engine.GenerateSecret("user@example.com")
//	if err != nil {
//	    return err
//	}
//	// store secret.Base32, render secret.URI as a QR code
//
//	ok, err := engine.Verify(code, secret.Base32)
//
// # Configuration
//
//	TOTP_ISSUER          issuer shown in authenticator apps (default SecureKey)
//	TOTP_ENCRYPTION_KEY  optional base64 encoded 32-byte key for SecretCipher
package totp
