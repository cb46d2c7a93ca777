// Package lockout implements brute-force protection for accounts.
//
// The guard is a pure state machine over account.Account values. It never performs I/O:
// each operation takes an account snapshot and the current time and returns an Outcome holding
// the new snapshot together with the effects the caller must carry out (persist the account,
// send an unlock email).
//
// States and events:
//
//	unlocked --failure [below max]--> unlocked   persist
//	unlocked --failure [reaches max]--> locked   persist, send unlock email
//	unlocked --success [had failures]--> unlocked persist
//	locked   --expire  [lock passed]--> unlocked  persist
//	locked   --redeem  [token valid]--> unlocked  persist
//	locked   --success --> unlocked               persist
//
// A lock that has run out is not cleared by ComputeLockStatus. The status only reports
// ShouldAutoUnlock and the caller applies it explicitly with ApplyAutoUnlock.
//
// # Configuration
//
//	LOCKOUT_MAX_FAILED_ATTEMPTS   default 5
//	LOCKOUT_DURATION              default 30m
//	LOCKOUT_UNLOCK_TOKEN_TTL      default 24h
//	LOCKOUT_ENABLE_EMAIL_UNLOCK   default true
package lockout
