package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/email/templates"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// Authenticate applies the route-guard rules to a session: it must be logged in,
// and an enabled second factor must have been passed.
func (s *Service) Authenticate(sess session.Data) error {
	if err := requireLogin(sess); err != nil {
		return err
	}
	if sess.NeedsSecondFactor() {
		return ErrSecondFactorRequired
	}
	return nil
}

// requireLogin accepts sessions that passed the password step, second factor or not.
func requireLogin(sess session.Data) error {
	if !sess.IsLoggedIn || sess.UserID == uuid.Nil {
		return ErrAuthenticationRequired
	}
	return nil
}

// checkLock auto-unlocks an expired lock and rejects an active one.
// save reports whether auto-unlock changed the account.
func (s *Service) checkLock(ctx context.Context, acc account.Account, now time.Time) (account.Account, bool, error) {
	status := s.guard.ComputeLockStatus(acc, now)
	switch {
	case status.ShouldAutoUnlock:
		s.logger.InfoContext(ctx, "lock expired, unlocking account",
			logger.UserID(acc.ID.String()),
			logger.Event("auto_unlock"),
		)
		return s.guard.ApplyAutoUnlock(acc, now).Account, true, nil
	case status.Locked:
		return acc, false, &LockedError{MinutesRemaining: status.MinutesRemaining()}
	}
	return acc, false, nil
}

// fail records a failed attempt and returns cause once the account is persisted.
func (s *Service) fail(ctx context.Context, acc account.Account, now time.Time, cause error, out *lockout.Outcome) (account.Account, bool, error) {
	o, err := s.guard.RecordFailure(acc, now)
	if err != nil {
		return acc, false, s.unexpected(ctx, "failed to record failed attempt", err)
	}
	*out = o

	attrs := []any{logger.UserID(acc.ID.String()), logger.Attempts(o.Account.FailedLoginAttempts)}
	if o.Locked() && o.From != o.To {
		s.logger.WarnContext(ctx, "account locked after repeated failures", append(attrs, logger.Event("account_locked"))...)
	} else {
		s.logger.InfoContext(ctx, "failed authentication attempt", attrs...)
	}
	return o.Account, true, cause
}

// afterFailure audits a persisted failure and delivers the unlock email when it locked the account.
func (s *Service) afterFailure(ctx context.Context, saved account.Account, out lockout.Outcome, action audit.Action, cause error) {
	s.record(ctx, action, saved,
		audit.WithReason(cause),
		audit.WithMetadata("attempts", saved.FailedLoginAttempts),
	)
	if out.Locked() && out.From != out.To {
		s.record(ctx, audit.ActionAccountLocked, saved,
			audit.WithMetadata("locked_until", saved.AccountLockedUntil),
		)
	}

	if !out.Has(lockout.EffectSendUnlockEmail) || saved.UnlockToken.IsZero() {
		return
	}
	tok := saved.UnlockToken
	s.send(ctx, saved.Email, templates.SubjectUnlockAccount, "account_unlock", templates.UnlockAccount(templates.UnlockData{
		Link:      s.cfg.link(s.cfg.UnlockPath, tok.Value),
		ExpiresIn: tok.ExpiresAt.Sub(tok.IssuedAt),
	}))
}
