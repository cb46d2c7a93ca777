package auth

import (
	"context"
	"errors"
	"time"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// VerifyEmail redeems an email verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	found, err := s.store.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrEmptyToken) {
			return ErrTokenInvalidOrExpired
		}
		return s.unexpected(ctx, "failed to look up verification token", err)
	}

	saved, err := s.update(ctx, found.ID, func(acc account.Account) (account.Account, bool, error) {
		if acc.EmailVerificationToken != token || !s.now().Before(acc.EmailVerificationExpires) {
			return acc, false, ErrTokenInvalidOrExpired
		}
		acc.IsEmailVerified = true
		acc.EmailVerificationToken = ""
		acc.EmailVerificationExpires = time.Time{}
		return acc, true, nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return err
	}

	s.logger.InfoContext(ctx, "email verified",
		logger.UserID(saved.ID.String()),
		logger.Event("email_verified"),
	)
	s.record(ctx, audit.ActionEmailVerified, saved)
	return nil
}

// ResendVerification issues a fresh verification token and mails it.
// Unlike registration, a failed send is returned as ErrEmailNotSent.
func (s *Service) ResendVerification(ctx context.Context, sess session.Data) error {
	if err := s.Authenticate(sess); err != nil {
		return err
	}

	token, err := randomToken(VerificationTokenBytes)
	if err != nil {
		return s.unexpected(ctx, "failed to generate verification token", err)
	}

	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		if acc.IsEmailVerified {
			return acc, false, ErrEmailAlreadyVerified
		}
		acc.EmailVerificationToken = token
		acc.EmailVerificationExpires = s.now().Add(s.cfg.VerificationTTL)
		return acc, true, nil
	})
	if err != nil {
		return err
	}

	if !s.sendVerification(ctx, saved) {
		return ErrEmailNotSent
	}
	return nil
}
