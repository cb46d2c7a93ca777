package session

import (
	"github.com/google/uuid"

	"github.com/securekey/authcore/pkg/account"
)

// Data is the state carried by the session cookie.
// The zero value is a logged-out session.
type Data struct {
	UserID         uuid.UUID `json:"uid"`
	Email          string    `json:"email"`
	IsTotpEnabled  bool      `json:"totp_enabled"`
	IsTotpVerified bool      `json:"totp_verified"`
	IsLoggedIn     bool      `json:"logged_in"`
}

// NewLogin creates the session issued right after a password login.
// The second factor counts as verified only when the account has none.
func NewLogin(acc account.Account) Data {
	return Data{
		UserID:         acc.ID,
		Email:          acc.Email,
		IsTotpEnabled:  acc.IsTotpEnabled,
		IsTotpVerified: !acc.IsTotpEnabled,
		IsLoggedIn:     true,
	}
}

// WithTotpVerified returns a copy marking the second factor as passed.
func (d Data) WithTotpVerified() Data {
	d.IsTotpVerified = true
	return d
}

// WithTotp returns a copy reflecting TOTP being switched on or off in this session.
// Either way the user has satisfied whatever second factor applies.
func (d Data) WithTotp(enabled bool) Data {
	d.IsTotpEnabled = enabled
	d.IsTotpVerified = true
	return d
}

// NeedsSecondFactor reports a logged-in session that still has to pass TOTP.
func (d Data) NeedsSecondFactor() bool {
	return d.IsLoggedIn && d.IsTotpEnabled && !d.IsTotpVerified
}

// Authenticated reports a logged-in session with every required factor passed.
func (d Data) Authenticated() bool {
	return d.IsLoggedIn && d.UserID != uuid.Nil && !d.NeedsSecondFactor()
}
