package auth

import (
	"context"
	"errors"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/session"
)

// Profile returns the signed-in user's account summary.
func (s *Service) Profile(ctx context.Context, sess session.Data) (*Profile, error) {
	if err := s.Authenticate(sess); err != nil {
		return nil, err
	}
	acc, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Email:           acc.Email,
		IsTotpEnabled:   acc.IsTotpEnabled,
		IsEmailVerified: acc.IsEmailVerified,
		BackupCodesLeft: len(acc.BackupCodes),
	}, nil
}

// DeleteAccount removes the signed-in user's account and returns the clear-cookie header.
func (s *Service) DeleteAccount(ctx context.Context, sess session.Data) (string, error) {
	if err := s.Authenticate(sess); err != nil {
		return "", err
	}

	unlock, err := s.locker.Lock(ctx, "account:"+sess.UserID.String())
	if err != nil {
		return "", s.unexpected(ctx, "failed to acquire account lock", err)
	}
	defer unlock()

	if err := s.store.Delete(ctx, sess.UserID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", s.unexpected(ctx, "failed to delete account", err)
	}

	s.logger.InfoContext(ctx, "account deleted",
		logger.UserID(sess.UserID.String()),
		logger.Event("account_deleted"),
	)
	s.record(ctx, audit.ActionAccountDeleted, account.Account{ID: sess.UserID, Email: sess.Email})
	return s.sealer.ClearCookieHeader(), nil
}
