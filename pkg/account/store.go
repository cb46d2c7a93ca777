package account

import (
	"context"

	"github.com/google/uuid"
)

// Store persists accounts.
//
// Every finder returns ErrNotFound when nothing matches. Save inserts records with a zero
// Version and otherwise replaces the stored document if its version matches, returning
// the stored copy with Version and UpdatedAt advanced.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByUnlockToken(ctx context.Context, token string) (Account, error)
	FindByVerificationToken(ctx context.Context, token string) (Account, error)
	Save(ctx context.Context, acc Account) (Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
