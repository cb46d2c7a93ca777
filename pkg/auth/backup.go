package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/backupcode"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// VerifyBackupCode completes a login with a single-use recovery code.
// The code is consumed and TOTP is switched off, so the user has to enroll again.
// Wrong codes count toward lockout.
func (s *Service) VerifyBackupCode(ctx context.Context, sess session.Data, code string) (*BackupCodeResult, error) {
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	var (
		out          lockout.Outcome
		remaining    int
		totpDisabled bool
	)
	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		now := s.now()
		acc, dirty, err := s.checkLock(ctx, acc, now)
		if err != nil {
			return acc, dirty, err
		}

		res, err := backupcode.VerifyAvailable(code, acc.BackupCodes)
		if errors.Is(err, backupcode.ErrNoCodesAvailable) {
			return acc, dirty, ErrNoBackupCodesAvailable
		}
		if !res.Valid {
			return s.fail(ctx, acc, now, ErrInvalidCredentials, &out)
		}

		codes, err := backupcode.Consume(acc.BackupCodes, res.Index)
		if err != nil {
			return acc, false, s.unexpected(ctx, "failed to consume backup code", err)
		}
		acc.BackupCodes = codes
		totpDisabled = acc.IsTotpEnabled
		acc.IsTotpEnabled = false
		acc.TotpSecret = ""

		out = s.guard.RecordSuccess(acc, now)
		remaining = len(codes)
		return out.Account, true, nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.afterFailure(ctx, saved, out, audit.ActionBackupCodeFailed, err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "backup code accepted",
		logger.UserID(saved.ID.String()),
		logger.Event("backup_code_used"),
		slog.Int("remaining_codes", remaining),
	)
	s.record(ctx, audit.ActionBackupCodeUsed, saved, audit.WithMetadata("remaining_codes", remaining))

	issued, err := s.issue(ctx, sess.WithTotp(false))
	if err != nil {
		return nil, err
	}
	return &BackupCodeResult{
		SessionResult: *issued,
		Remaining:     remaining,
		TotpDisabled:  totpDisabled,
	}, nil
}

// RegenerateBackupCodes replaces every backup code and returns the new plaintext set.
func (s *Service) RegenerateBackupCodes(ctx context.Context, sess session.Data) ([]string, error) {
	if err := s.Authenticate(sess); err != nil {
		return nil, err
	}

	codes, err := backupcode.Generate(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to generate backup codes", err)
	}
	hashes := backupcode.HashAll(codes)

	saved, err := s.update(ctx, sess.UserID, func(acc account.Account) (account.Account, bool, error) {
		acc.BackupCodes = hashes
		return acc, true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "backup codes regenerated",
		logger.UserID(saved.ID.String()),
		logger.Event("backup_codes_regenerated"),
	)
	s.record(ctx, audit.ActionBackupCodesReissued, saved)
	return codes, nil
}
