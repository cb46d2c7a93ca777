package templates

import (
	"fmt"
	"time"

	"github.com/a-h/templ"
)

const (
	SubjectUnlockAccount = "Account Locked - Unlock Your Account"
	SubjectVerifyEmail   = "Verify your email address"
)

// UnlockData fills the account-locked email.
type UnlockData struct {
	Link      string
	ExpiresIn time.Duration
}

// UnlockAccount is sent when repeated failed logins lock an account.
func UnlockAccount(d UnlockData) templ.Component {
	return Layout(SubjectUnlockAccount, Join(
		Paragraph("Your account has been locked due to multiple failed login attempts."),
		Paragraph("Click the button below to unlock your account:"),
		Button("Unlock Account", d.Link),
		Paragraph("This link will expire in "+humanize(d.ExpiresIn)+"."),
		Paragraph("If you didn't attempt to log in, please contact support immediately."),
	))
}

// VerifyData fills the email verification message.
type VerifyData struct {
	Link      string
	ExpiresIn time.Duration
}

// VerifyEmail asks a new user to confirm their address.
func VerifyEmail(d VerifyData) templ.Component {
	return Layout(SubjectVerifyEmail, Join(
		Paragraph("Thanks for signing up. Please confirm your email address by clicking the button below:"),
		Button("Verify Email", d.Link),
		Paragraph("This link will expire in "+humanize(d.ExpiresIn)+"."),
		Paragraph("If you didn't create an account, you can ignore this email."),
	))
}

func humanize(d time.Duration) string {
	switch {
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Hour:
		return "1 hour"
	default:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
}
