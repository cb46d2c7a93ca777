package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/securekey/authcore/pkg/account"
)

// accountDocument is the stored shape of an account.
type accountDocument struct {
	ID                       string    `bson:"_id"`
	Email                    string    `bson:"email"`
	PasswordHash             string    `bson:"password_hash"`
	TotpSecret               string    `bson:"totp_secret,omitempty"`
	IsTotpEnabled            bool      `bson:"is_totp_enabled"`
	BackupCodes              []string  `bson:"backup_codes"`
	IsEmailVerified          bool      `bson:"is_email_verified"`
	EmailVerificationToken   string    `bson:"email_verification_token,omitempty"`
	EmailVerificationExpires time.Time `bson:"email_verification_expires,omitempty"`
	FailedLoginAttempts      int       `bson:"failed_login_attempts"`
	AccountLocked            bool      `bson:"account_locked"`
	AccountLockedUntil       time.Time `bson:"account_locked_until,omitempty"`
	UnlockToken              string    `bson:"unlock_token,omitempty"`
	UnlockTokenIssuedAt      time.Time `bson:"unlock_token_issued_at,omitempty"`
	UnlockTokenExpiresAt     time.Time `bson:"unlock_token_expires_at,omitempty"`
	Version                  int64     `bson:"version"`
	CreatedAt                time.Time `bson:"created_at"`
	UpdatedAt                time.Time `bson:"updated_at"`
}

func toDocument(acc account.Account) accountDocument {
	codes := acc.BackupCodes
	if codes == nil {
		codes = []string{}
	}
	return accountDocument{
		ID:                       acc.ID.String(),
		Email:                    acc.Email,
		PasswordHash:             acc.PasswordHash,
		TotpSecret:               acc.TotpSecret,
		IsTotpEnabled:            acc.IsTotpEnabled,
		BackupCodes:              codes,
		IsEmailVerified:          acc.IsEmailVerified,
		EmailVerificationToken:   acc.EmailVerificationToken,
		EmailVerificationExpires: acc.EmailVerificationExpires,
		FailedLoginAttempts:      acc.FailedLoginAttempts,
		AccountLocked:            acc.AccountLocked,
		AccountLockedUntil:       acc.AccountLockedUntil,
		UnlockToken:              acc.UnlockToken.Value,
		UnlockTokenIssuedAt:      acc.UnlockToken.IssuedAt,
		UnlockTokenExpiresAt:     acc.UnlockToken.ExpiresAt,
		Version:                  acc.Version,
		CreatedAt:                acc.CreatedAt,
		UpdatedAt:                acc.UpdatedAt,
	}
}

func (d accountDocument) toAccount() (account.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return account.Account{}, errors.Join(ErrQueryFailed, err)
	}
	codes := d.BackupCodes
	if codes == nil {
		codes = []string{}
	}
	return account.Account{
		ID:                       id,
		Email:                    d.Email,
		PasswordHash:             d.PasswordHash,
		TotpSecret:               d.TotpSecret,
		IsTotpEnabled:            d.IsTotpEnabled,
		BackupCodes:              codes,
		IsEmailVerified:          d.IsEmailVerified,
		EmailVerificationToken:   d.EmailVerificationToken,
		EmailVerificationExpires: utc(d.EmailVerificationExpires),
		FailedLoginAttempts:      d.FailedLoginAttempts,
		AccountLocked:            d.AccountLocked,
		AccountLockedUntil:       utc(d.AccountLockedUntil),
		UnlockToken: account.UnlockToken{
			Value:     d.UnlockToken,
			IssuedAt:  utc(d.UnlockTokenIssuedAt),
			ExpiresAt: utc(d.UnlockTokenExpiresAt),
		},
		Version:   d.Version,
		CreatedAt: utc(d.CreatedAt),
		UpdatedAt: utc(d.UpdatedAt),
	}, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

// AccountStore implements account.Store on a MongoDB collection.
type AccountStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewAccountStore creates the collection indexes and returns the store.
func NewAccountStore(ctx context.Context, coll *mongo.Collection) (*AccountStore, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "unlock_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "email_verification_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToCreateIndexes, err)
	}
	return &AccountStore{coll: coll, now: time.Now}, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (account.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: account.NormalizeEmail(email)}})
}

func (s *AccountStore) FindByUnlockToken(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, account.ErrEmptyToken
	}
	return s.findOne(ctx, bson.D{{Key: "unlock_token", Value: token}})
}

func (s *AccountStore) FindByVerificationToken(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, account.ErrEmptyToken
	}
	return s.findOne(ctx, bson.D{{Key: "email_verification_token", Value: token}})
}

// Save inserts accounts with a zero Version and otherwise replaces the document guarded by Version.
func (s *AccountStore) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	acc = acc.Clone()
	acc.Email = account.NormalizeEmail(acc.Email)
	// BSON dates carry millisecond precision
	now := s.now().UTC().Truncate(time.Millisecond)

	if acc.Version == 0 {
		if acc.ID == uuid.Nil {
			acc.ID = uuid.New()
		}
		acc.Version = 1
		acc.CreatedAt = now
		acc.UpdatedAt = now

		if _, err := s.coll.InsertOne(ctx, toDocument(acc)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return account.Account{}, account.ErrEmailTaken
			}
			return account.Account{}, errors.Join(ErrQueryFailed, err)
		}
		return acc, nil
	}

	expected := acc.Version
	acc.Version++
	acc.UpdatedAt = now

	res, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: acc.ID.String()}, {Key: "version", Value: expected}},
		toDocument(acc),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.Account{}, account.ErrEmailTaken
		}
		return account.Account{}, errors.Join(ErrQueryFailed, err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.FindByID(ctx, acc.ID); err != nil {
			return account.Account{}, err
		}
		return account.Account{}, account.ErrVersionConflict
	}
	return acc, nil
}

func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if res.DeletedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.D) (account.Account, error) {
	var doc accountDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Join(ErrQueryFailed, err)
	}
	return doc.toAccount()
}
