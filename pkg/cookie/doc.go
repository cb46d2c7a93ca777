// Package cookie seals values into tamper-proof, encrypted HTTP cookies.
//
// A Manager is created from one or more secrets of at least 32 characters. Each secret is
// stretched with HKDF-SHA256 into an AES-256-GCM key. The first secret seals new values and
// all of them are tried when opening, which allows key rotation without logging users out.
//
// Besides reading and writing cookies on net/http values, the manager can render raw
// Set-Cookie header strings for transports that do not use http.ResponseWriter.
//
//	m, err := cookie.New([]string{os.Getenv("SESSION_SECRET")}, cookie.WithMaxAge(86400))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sealed, _ := m.Seal([]byte(`{"uid":"42"}`))
//	header, _ := m.SetCookieHeader("sid", sealed)
//	// sid=...; Path=/; Max-Age=86400; HttpOnly; SameSite=Lax
//
//	plain, err := m.Open(sealed)
//
// Errors are package sentinels such as ErrDecryptionFailed and ErrInvalidFormat.
package cookie
