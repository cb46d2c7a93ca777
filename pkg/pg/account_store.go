package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/securekey/authcore/pkg/account"
)

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx used by the store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountStore implements account.Store on PostgreSQL.
type AccountStore struct {
	db  DBTX
	now func() time.Time
}

// NewAccountStore creates a store over db. The schema must already be migrated.
func NewAccountStore(db DBTX) *AccountStore {
	return &AccountStore{db: db, now: time.Now}
}

// emailUniqueIndex is created by 00001_create_accounts.sql.
const emailUniqueIndex = "accounts_email_key"

const accountColumns = `id, email, password_hash, totp_secret, is_totp_enabled, backup_codes,
	is_email_verified, email_verification_token, email_verification_expires,
	failed_login_attempts, account_locked, account_locked_until,
	unlock_token, unlock_token_issued_at, unlock_token_expires_at,
	version, created_at, updated_at`

const insertAccount = `INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

const updateAccount = `UPDATE accounts SET
	email = $2, password_hash = $3, totp_secret = $4, is_totp_enabled = $5, backup_codes = $6,
	is_email_verified = $7, email_verification_token = $8, email_verification_expires = $9,
	failed_login_attempts = $10, account_locked = $11, account_locked_until = $12,
	unlock_token = $13, unlock_token_issued_at = $14, unlock_token_expires_at = $15,
	version = version + 1, updated_at = $17
	WHERE id = $1 AND version = $16`

func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (account.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, account.NormalizeEmail(email))
}

func (s *AccountStore) FindByUnlockToken(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, account.ErrEmptyToken
	}
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE unlock_token = $1`, token)
}

func (s *AccountStore) FindByVerificationToken(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, account.ErrEmptyToken
	}
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email_verification_token = $1`, token)
}

// Save inserts accounts with a zero Version and otherwise updates the row guarded by Version.
func (s *AccountStore) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	acc = acc.Clone()
	acc.Email = account.NormalizeEmail(acc.Email)
	now := s.now().UTC().Truncate(time.Microsecond)

	if acc.Version == 0 {
		if acc.ID == uuid.Nil {
			acc.ID = uuid.New()
		}
		acc.Version = 1
		acc.CreatedAt = now
		acc.UpdatedAt = now

		if _, err := s.db.Exec(ctx, insertAccount, append(fields(acc), acc.Version, acc.CreatedAt, acc.UpdatedAt)...); err != nil {
			if IsDuplicateKeyError(err, emailUniqueIndex) {
				return account.Account{}, account.ErrEmailTaken
			}
			return account.Account{}, errors.Join(ErrQueryFailed, err)
		}
		return acc, nil
	}

	tag, err := s.db.Exec(ctx, updateAccount, append(fields(acc), acc.Version, now)...)
	if err != nil {
		if IsDuplicateKeyError(err, emailUniqueIndex) {
			return account.Account{}, account.ErrEmailTaken
		}
		return account.Account{}, errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindByID(ctx, acc.ID); err != nil {
			return account.Account{}, err
		}
		return account.Account{}, account.ErrVersionConflict
	}

	acc.Version++
	acc.UpdatedAt = now
	return acc, nil
}

func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *AccountStore) findOne(ctx context.Context, query string, arg any) (account.Account, error) {
	var (
		acc                             account.Account
		verifyToken, unlockToken        *string
		verifyExpires, lockedUntil      *time.Time
		unlockIssuedAt, unlockExpiresAt *time.Time
	)

	err := s.db.QueryRow(ctx, query, arg).Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.TotpSecret, &acc.IsTotpEnabled, &acc.BackupCodes,
		&acc.IsEmailVerified, &verifyToken, &verifyExpires,
		&acc.FailedLoginAttempts, &acc.AccountLocked, &lockedUntil,
		&unlockToken, &unlockIssuedAt, &unlockExpiresAt,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Join(ErrQueryFailed, err)
	}

	acc.EmailVerificationToken = deref(verifyToken)
	acc.EmailVerificationExpires = derefTime(verifyExpires)
	acc.AccountLockedUntil = derefTime(lockedUntil)
	acc.UnlockToken = account.UnlockToken{
		Value:     deref(unlockToken),
		IssuedAt:  derefTime(unlockIssuedAt),
		ExpiresAt: derefTime(unlockExpiresAt),
	}
	if acc.BackupCodes == nil {
		acc.BackupCodes = []string{}
	}
	return acc, nil
}

// fields returns the positional arguments $1..$15 shared by insert and update.
func fields(acc account.Account) []any {
	codes := acc.BackupCodes
	if codes == nil {
		codes = []string{}
	}
	return []any{
		acc.ID, acc.Email, acc.PasswordHash, acc.TotpSecret, acc.IsTotpEnabled, codes,
		acc.IsEmailVerified, nullString(acc.EmailVerificationToken), nullTime(acc.EmailVerificationExpires),
		acc.FailedLoginAttempts, acc.AccountLocked, nullTime(acc.AccountLockedUntil),
		nullString(acc.UnlockToken.Value), nullTime(acc.UnlockToken.IssuedAt), nullTime(acc.UnlockToken.ExpiresAt),
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
