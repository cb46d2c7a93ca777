package auth

import (
	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/session"
)

// SessionResult is a replacement session together with the Set-Cookie header carrying it.
type SessionResult struct {
	Session session.Data
	Cookie  string
}

// Registration is returned once, right after an account is created.
// BackupCodes holds the only plaintext copy of the codes.
type Registration struct {
	Account          account.Account
	BackupCodes      []string
	VerificationSent bool
}

// TOTPSetup carries what the user needs to enroll an authenticator app.
type TOTPSetup struct {
	Secret string
	URI    string
	QRCode string // data:image/png;base64 URI
}

type BackupCodeResult struct {
	SessionResult
	Remaining    int
	TotpDisabled bool
}

type UnlockResult struct {
	Email           string
	AlreadyUnlocked bool
}

// Profile is the account summary shown to a signed-in user.
type Profile struct {
	Email           string
	IsTotpEnabled   bool
	IsEmailVerified bool
	BackupCodesLeft int
}
