package auth

import (
	"context"
	"errors"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// Login checks the password and issues a new session.
// Unknown emails and wrong passwords both return ErrInvalidCredentials; only the latter
// counts toward lockout. When TOTP is enabled the session still needs VerifyTOTP or
// VerifyBackupCode, and the failure counter is left as is until one of them succeeds.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*SessionResult, error) {
	if emailAddr == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	found, err := s.store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.hasher.Compare(password, s.dummyPw)
			return nil, ErrInvalidCredentials
		}
		return nil, s.unexpected(ctx, "failed to load account", err)
	}

	var (
		out      lockout.Outcome
		checked  bool
		matching bool
	)
	saved, err := s.update(ctx, found.ID, func(acc account.Account) (account.Account, bool, error) {
		now := s.now()
		acc, dirty, err := s.checkLock(ctx, acc, now)
		if err != nil {
			return acc, dirty, err
		}

		if !checked {
			matching = s.hasher.Compare(password, acc.PasswordHash)
			checked = true
		}
		if !matching {
			return s.fail(ctx, acc, now, ErrInvalidCredentials, &out)
		}
		if acc.IsTotpEnabled {
			// the counter is shared with second-factor attempts and resets only once they pass
			return acc, dirty, nil
		}

		out = s.guard.RecordSuccess(acc, now)
		return out.Account, dirty || out.Has(lockout.EffectPersist), nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.afterFailure(ctx, saved, out, audit.ActionLoginFailed, err)
		}
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "password login succeeded",
		logger.UserID(saved.ID.String()),
		logger.Event("login"),
	)
	s.record(ctx, audit.ActionLoginSucceeded, saved)
	return s.issue(ctx, session.NewLogin(saved))
}

// Logout returns the header that clears the session cookie.
func (s *Service) Logout() string {
	return s.sealer.ClearCookieHeader()
}
