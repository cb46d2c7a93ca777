package auth

import (
	"context"
	"errors"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
)

// UnlockAccount redeems the token from an unlock email.
// A token for an account that is no longer locked reports AlreadyUnlocked.
func (s *Service) UnlockAccount(ctx context.Context, token string) (*UnlockResult, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	found, err := s.store.FindByUnlockToken(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrEmptyToken) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, s.unexpected(ctx, "failed to look up unlock token", err)
	}

	var already bool
	saved, err := s.update(ctx, found.ID, func(acc account.Account) (account.Account, bool, error) {
		out, err := s.guard.Redeem(acc, token, s.now())
		if err != nil {
			if errors.Is(err, lockout.ErrTokenInvalidOrExpired) {
				return acc, false, ErrTokenInvalidOrExpired
			}
			return acc, false, s.unexpected(ctx, "failed to redeem unlock token", err)
		}
		already = out.AlreadyUnlocked
		return out.Account, out.Has(lockout.EffectPersist), nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, err
	}

	if !already {
		s.logger.InfoContext(ctx, "account unlocked by token",
			logger.UserID(saved.ID.String()),
			logger.Event("account_unlocked"),
		)
		s.record(ctx, audit.ActionAccountUnlocked, saved, audit.WithMetadata("via", "token"))
	}
	return &UnlockResult{Email: saved.Email, AlreadyUnlocked: already}, nil
}
