package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/email"
)

// MockEmailSender is a mock implementation of email.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// sent returns the params of every SendEmail call with the given tag.
func (m *MockEmailSender) sent(tag string) []email.SendEmailParams {
	var out []email.SendEmailParams
	for _, c := range m.Calls {
		if c.Method != "SendEmail" {
			continue
		}
		if p := c.Arguments.Get(1).(email.SendEmailParams); p.Tag == tag {
			out = append(out, p)
		}
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// conflictStore fails the first n saves with a version conflict.
type conflictStore struct {
	*account.MemoryStore
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (s *conflictStore) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	s.mu.Lock()
	s.saves++
	if s.conflicts > 0 && acc.Version > 0 {
		s.conflicts--
		s.mu.Unlock()
		return account.Account{}, account.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, acc)
}

// brokenStore fails every update.
type brokenStore struct {
	*account.MemoryStore
}

var errDiskFull = errors.New("disk full")

func (s *brokenStore) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	if acc.Version > 0 {
		return account.Account{}, errDiskFull
	}
	return s.MemoryStore.Save(ctx, acc)
}
