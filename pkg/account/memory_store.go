package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process maps.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	byEmail  map[string]uuid.UUID
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]Account),
		byEmail:  make(map[string]uuid.UUID),
		now:      time.Now,
	}
}

func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc.Clone(), nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return m.accounts[id].Clone(), nil
}

func (m *MemoryStore) FindByUnlockToken(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrEmptyToken
	}
	return m.findFirst(func(a Account) bool { return a.UnlockToken.Value == token })
}

func (m *MemoryStore) FindByVerificationToken(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrEmptyToken
	}
	return m.findFirst(func(a Account) bool { return a.EmailVerificationToken == token })
}

func (m *MemoryStore) findFirst(match func(Account) bool) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acc := range m.accounts {
		if match(acc) {
			return acc.Clone(), nil
		}
	}
	return Account{}, ErrNotFound
}

// Save inserts new accounts and replaces existing ones when the version matches.
func (m *MemoryStore) Save(ctx context.Context, acc Account) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc = acc.Clone()
	acc.Email = NormalizeEmail(acc.Email)
	now := m.now()

	if acc.Version == 0 {
		if _, taken := m.byEmail[acc.Email]; taken {
			return Account{}, ErrEmailTaken
		}
		if acc.ID == uuid.Nil {
			acc.ID = uuid.New()
		}
		acc.CreatedAt = now
		acc.UpdatedAt = now
		acc.Version = 1
		m.accounts[acc.ID] = acc
		m.byEmail[acc.Email] = acc.ID
		return acc.Clone(), nil
	}

	stored, ok := m.accounts[acc.ID]
	if !ok {
		return Account{}, ErrNotFound
	}
	if stored.Version != acc.Version {
		return Account{}, ErrVersionConflict
	}
	if stored.Email != acc.Email {
		if _, taken := m.byEmail[acc.Email]; taken {
			return Account{}, ErrEmailTaken
		}
		delete(m.byEmail, stored.Email)
		m.byEmail[acc.Email] = acc.ID
	}

	acc.Version++
	acc.UpdatedAt = now
	m.accounts[acc.ID] = acc
	return acc.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.accounts, id)
	delete(m.byEmail, acc.Email)
	return nil
}
