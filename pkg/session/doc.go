// Package session keeps authenticated session state in an encrypted cookie, with no
// server-side storage.
//
// Data is an immutable value. Every state change (login, second-factor verification,
// enabling or disabling TOTP) produces a complete new Data that is sealed and written as a
// whole; there is no partial update.
//
// A Sealer wraps a cookie.Manager. Seal encrypts the payload together with its issue and
// expiry time. Unseal never fails: a tampered, expired, foreign or malformed token yields a
// logged-out Data. UnsealStrict returns the underlying error for diagnostics.
//
//	sealer, err := session.NewFromConfig(cfg)
//	token, _ := sealer.Seal(session.NewLogin(acc))
//	header, _ := sealer.SetCookieHeader(token)
//	// 2fa_app_session=...; Path=/; Max-Age=86400; HttpOnly; SameSite=Lax
//
//	data := sealer.FromRequest(r)
//	if !data.IsLoggedIn { ... }
//
// # Configuration
//
//	SESSION_SECRET       required, at least 32 characters; comma separated for key rotation
//	SESSION_COOKIE_NAME  default 2fa_app_session
//	SESSION_MAX_AGE      default 24h
//	SESSION_SECURE       adds the Secure attribute; always on in production
package session
