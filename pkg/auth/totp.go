package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// BeginTOTPSetup generates a new secret, stores it as pending and returns the enrollment data.
// The secret only takes effect after EnableTOTP confirms a code from it.
func (s *Service) BeginTOTPSetup(ctx context.Context, sess session.Data) (*TOTPSetup, error) {
	if err := s.Authenticate(sess); err != nil {
		return nil, err
	}
	acc, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if acc.IsTotpEnabled {
		return nil, ErrTotpAlreadyEnabled
	}

	secret, err := s.otp.GenerateSecret(acc.Email)
	if err != nil {
		return nil, s.setupFailed(ctx, "failed to generate totp secret", err)
	}
	image, err := s.qr.Render(secret.URI)
	if err != nil {
		return nil, s.setupFailed(ctx, "failed to render provisioning qr code", err)
	}
	stored, err := s.sealSecret(secret.Base32)
	if err != nil {
		return nil, s.setupFailed(ctx, "failed to encrypt totp secret", err)
	}

	_, err = s.update(ctx, acc.ID, func(acc account.Account) (account.Account, bool, error) {
		if acc.IsTotpEnabled {
			return acc, false, ErrTotpAlreadyEnabled
		}
		acc.TotpSecret = stored
		return acc, true, nil
	})
	if err != nil {
		return nil, err
	}

	return &TOTPSetup{Secret: secret.Base32, URI: secret.URI, QRCode: image}, nil
}

// EnableTOTP confirms the pending secret with a current code and switches TOTP on.
func (s *Service) EnableTOTP(ctx context.Context, sess session.Data, code string) (*SessionResult, error) {
	if err := s.Authenticate(sess); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}

	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		if acc.TotpSecret == "" {
			return acc, false, ErrTotpNotSetUp
		}
		ok, err := s.checkCode(ctx, acc, code)
		if err != nil {
			return acc, false, err
		}
		if !ok {
			return acc, false, ErrInvalidCredentials
		}
		acc.IsTotpEnabled = true
		return acc, true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor authentication enabled",
		logger.UserID(saved.ID.String()),
		logger.Event("totp_enabled"),
	)
	s.record(ctx, audit.ActionTotpEnabled, saved)
	return s.issue(ctx, sess.WithTotp(true))
}

// VerifyTOTP completes a login with a code from the authenticator app.
// Wrong codes count toward lockout.
func (s *Service) VerifyTOTP(ctx context.Context, sess session.Data, code string) (*SessionResult, error) {
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}

	var out lockout.Outcome
	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		now := s.now()
		acc, dirty, err := s.checkLock(ctx, acc, now)
		if err != nil {
			return acc, dirty, err
		}
		if acc.TotpSecret == "" {
			return acc, dirty, ErrTotpNotSetUp
		}

		ok, err := s.checkCode(ctx, acc, code)
		if err != nil {
			return acc, dirty, err
		}
		if !ok {
			return s.fail(ctx, acc, now, ErrInvalidCredentials, &out)
		}

		out = s.guard.RecordSuccess(acc, now)
		return out.Account, dirty || out.Has(lockout.EffectPersist), nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.afterFailure(ctx, saved, out, audit.ActionTotpFailed, err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "second factor verified",
		logger.UserID(saved.ID.String()),
		logger.Event("totp_verified"),
	)
	s.record(ctx, audit.ActionTotpVerified, saved)
	return s.issue(ctx, sess.WithTotpVerified())
}

// DisableTOTP switches TOTP off and forgets the secret.
func (s *Service) DisableTOTP(ctx context.Context, sess session.Data) (*SessionResult, error) {
	if err := s.Authenticate(sess); err != nil {
		return nil, err
	}

	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		if !acc.IsTotpEnabled {
			return acc, false, ErrTotpAlreadyDisabled
		}
		acc.IsTotpEnabled = false
		acc.TotpSecret = ""
		return acc, true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor authentication disabled",
		logger.UserID(saved.ID.String()),
		logger.Event("totp_disabled"),
	)
	s.record(ctx, audit.ActionTotpDisabled, saved)
	return s.issue(ctx, sess.WithTotp(false))
}

// checkCode verifies code against the account's stored secret.
func (s *Service) checkCode(ctx context.Context, acc account.Account, code string) (bool, error) {
	secret, err := s.openSecret(acc.TotpSecret)
	if err != nil {
		return false, s.setupFailed(ctx, "failed to decrypt totp secret", err)
	}
	ok, err := s.otp.Verify(code, secret)
	if err != nil {
		return false, s.setupFailed(ctx, "stored totp secret is invalid", err)
	}
	return ok, nil
}

func (s *Service) setupFailed(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, logger.Error(err))
	return errors.Join(ErrSetup, err)
}
