package auth

import (
	"context"
	"errors"
	"net/mail"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/backupcode"
	"github.com/securekey/authcore/pkg/email/templates"
	"github.com/securekey/authcore/pkg/logger"
)

// Register creates an account with fresh backup codes and sends the verification email.
// A failed email does not fail registration; it is reported in VerificationSent.
func (s *Service) Register(ctx context.Context, emailAddr, password string) (*Registration, error) {
	addr := account.NormalizeEmail(emailAddr)
	if !validEmail(addr) {
		return nil, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, addr); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, s.unexpected(ctx, "failed to check existing account", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to hash password", err)
	}
	codes, err := backupcode.Generate(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to generate backup codes", err)
	}
	token, err := randomToken(VerificationTokenBytes)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to generate verification token", err)
	}

	acc := account.New(addr, hash)
	acc.BackupCodes = backupcode.HashAll(codes)
	acc.EmailVerificationToken = token
	acc.EmailVerificationExpires = s.now().Add(s.cfg.VerificationTTL)

	saved, err := s.store.Save(ctx, acc)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, s.unexpected(ctx, "failed to create account", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		logger.UserID(saved.ID.String()),
		logger.Email(saved.Email),
		logger.Event("register"),
	)
	s.record(ctx, audit.ActionRegistered, saved)

	return &Registration{
		Account:          saved,
		BackupCodes:      codes,
		VerificationSent: s.sendVerification(ctx, saved),
	}, nil
}

func (s *Service) sendVerification(ctx context.Context, acc account.Account) bool {
	return s.send(ctx, acc.Email, templates.SubjectVerifyEmail, "verify_email", templates.VerifyEmail(templates.VerifyData{
		Link:      s.cfg.link(s.cfg.VerifyEmailPath, acc.EmailVerificationToken),
		ExpiresIn: s.cfg.VerificationTTL,
	}))
}

func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
