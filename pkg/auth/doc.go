// Package auth is the account authentication orchestrator.
//
// Service composes the lockout guard, the TOTP engine, backup codes and the session
// sealer into the flows an HTTP layer calls: registration, password login, TOTP
// enrollment and verification, backup-code recovery, email verification and account
// unlock. Each operation returns a result value or a sentinel error; UserMessage maps
// errors to text that is safe to show.
//
// # Sessions
//
// Sessions are never stored server-side. Operations that change the session return a
// SessionResult holding the complete replacement session and its Set-Cookie header:
//
//	res, err := svc.Login(ctx, email, password)
//	if err != nil {
//	    http.Error(w, auth.UserMessage(err), http.StatusUnauthorized)
//	    return
//	}
//	w.Header().Add("Set-Cookie", res.Cookie)
//	if res.Session.NeedsSecondFactor() {
//	    // ask for a TOTP or backup code
//	}
//
// # Concurrency
//
// Every read-modify-write on an account runs under a per-account Locker and saves with
// the store's version check. Version conflicts are retried a bounded number of times;
// other store failures are returned at once as ErrUnexpected.
//
// # Lockout
//
// Wrong passwords, TOTP codes and backup codes all count toward lockout. Expired locks
// are cleared on the next attempt. The unlock email is sent after the locking failure
// is saved; delivery failures are logged and do not change the result.
package auth
