package auth

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/email"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/session"
	"github.com/securekey/authcore/pkg/totp"
)

const (
	testPassword = "Secret123"
	testEmail    = "user@example.com"
)

type fixture struct {
	svc    *Service
	store  account.Store
	mem    *account.MemoryStore
	mailer *MockEmailSender
	clock  *testClock
	sealer *session.Sealer
	events *audit.MemoryStorage
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	mem := account.NewMemoryStore()
	return newFixtureWithStore(t, mem, mem, opts...)
}

func newFixtureWithStore(t *testing.T, store account.Store, mem *account.MemoryStore, opts ...Option) *fixture {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}

	cfg := session.DefaultConfig()
	cfg.Secret = "0123456789abcdef0123456789abcdef"
	sealer, err := session.NewFromConfig(cfg, session.WithClock(clock.now))
	require.NoError(t, err)

	mailer := &MockEmailSender{}
	mailer.On("SendEmail", mock.Anything, mock.Anything).Return(nil)

	events := audit.NewMemoryStorage(0)
	base := []Option{
		WithClock(clock.now),
		WithAuditRecorder(audit.NewRecorder(events, audit.WithClock(clock.now))),
		WithTOTPEngine(totp.NewEngine(totp.WithClock(clock.now))),
		WithHasher(NewBcryptHasher(bcrypt.MinCost)),
	}
	svc := New(store, sealer, mailer, append(base, opts...)...)

	return &fixture{svc: svc, store: store, mem: mem, mailer: mailer, clock: clock, sealer: sealer, events: events}
}

func (f *fixture) register(t *testing.T, addr string) *Registration {
	t.Helper()
	reg, err := f.svc.Register(context.Background(), addr, testPassword)
	require.NoError(t, err)
	return reg
}

func (f *fixture) login(t *testing.T, addr string) session.Data {
	t.Helper()
	res, err := f.svc.Login(context.Background(), addr, testPassword)
	require.NoError(t, err)
	return res.Session
}

func (f *fixture) account(t *testing.T, addr string) account.Account {
	t.Helper()
	acc, err := f.store.FindByEmail(context.Background(), addr)
	require.NoError(t, err)
	return acc
}

// enableTOTP enrolls TOTP and returns the plaintext secret with a fully verified session.
func (f *fixture) enableTOTP(t *testing.T, sess session.Data) (string, session.Data) {
	t.Helper()
	ctx := context.Background()

	setup, err := f.svc.BeginTOTPSetup(ctx, sess)
	require.NoError(t, err)

	res, err := f.svc.EnableTOTP(ctx, sess, f.code(t, setup.Secret))
	require.NoError(t, err)
	return setup.Secret, res.Session
}

func (f *fixture) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.ComputeCode(secret, totp.CounterAt(f.clock.now()))
	require.NoError(t, err)
	return code
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	m := regexp.MustCompile(`token=([0-9a-f]+)`).FindStringSubmatch(body)
	require.Len(t, m, 2, "no token link in email body")
	return m[1]
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account with hashed backup codes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		reg := f.register(t, "  New.User@Example.com ")
		assert.Len(t, reg.BackupCodes, 10)
		assert.True(t, reg.VerificationSent)
		assert.Equal(t, "new.user@example.com", reg.Account.Email)

		acc := f.account(t, "new.user@example.com")
		require.Len(t, acc.BackupCodes, 10)
		assert.NotContains(t, acc.BackupCodes, reg.BackupCodes[0])
		assert.NotEqual(t, testPassword, acc.PasswordHash)
		assert.False(t, acc.IsEmailVerified)
		assert.Len(t, acc.EmailVerificationToken, VerificationTokenBytes*2)
		assert.Equal(t, f.clock.now().Add(24*time.Hour), acc.EmailVerificationExpires)

		mails := f.mailer.sent("verify_email")
		require.Len(t, mails, 1)
		assert.Equal(t, "new.user@example.com", mails[0].SendTo)
		assert.Equal(t, "Verify your email address", mails[0].Subject)
		assert.Contains(t, mails[0].BodyHTML, "http://localhost:3000/verify-email?token="+acc.EmailVerificationToken)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)

		_, err := f.svc.Register(context.Background(), "USER@example.com", testPassword)
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Equal(t, "User already exists", UserMessage(err))
	})

	t.Run("enforces password policy", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		tests := []struct {
			password string
			message  string
		}{
			{"Ab1", "Password must be at least 8 characters"},
			{"ABCDEFG1", "Password must contain a lowercase letter"},
			{"abcdefg1", "Password must contain an uppercase letter"},
			{"Abcdefgh", "Password must contain a number or special character"},
		}
		for _, tt := range tests {
			_, err := f.svc.Register(context.Background(), testEmail, tt.password)
			assert.ErrorIs(t, err, ErrWeakPassword, tt.password)
			assert.Equal(t, tt.message, UserMessage(err))
		}
		assert.NoError(t, ValidatePassword("Abcdefg!"))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.Register(context.Background(), "not-an-email", testPassword)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("email failure does not fail registration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.mailer.ExpectedCalls = nil
		f.mailer.On("SendEmail", mock.Anything, mock.Anything).Return(email.ErrFailedToSendEmail)

		reg, err := f.svc.Register(context.Background(), testEmail, testPassword)
		require.NoError(t, err)
		assert.False(t, reg.VerificationSent)
		assert.Len(t, reg.BackupCodes, 10)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("issues session for account without totp", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		reg := f.register(t, testEmail)

		res, err := f.svc.Login(context.Background(), "User@Example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, reg.Account.ID, res.Session.UserID)
		assert.True(t, res.Session.IsLoggedIn)
		assert.True(t, res.Session.IsTotpVerified)
		assert.NoError(t, f.svc.Authenticate(res.Session))

		assert.True(t, strings.HasPrefix(res.Cookie, "2fa_app_session="))
		assert.Contains(t, res.Cookie, "HttpOnly")
		assert.Contains(t, res.Cookie, "SameSite=Lax")
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)

		_, errUnknown := f.svc.Login(context.Background(), "nobody@example.com", testPassword)
		_, errWrong := f.svc.Login(context.Background(), testEmail, "Wrong1234")
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.Equal(t, UserMessage(errUnknown), UserMessage(errWrong))

		assert.Equal(t, 1, f.account(t, testEmail).FailedLoginAttempts)
	})

	t.Run("success resets failure counter", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)

		for range 3 {
			_, err := f.svc.Login(context.Background(), testEmail, "Wrong1234")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
		f.login(t, testEmail)
		assert.Equal(t, 0, f.account(t, testEmail).FailedLoginAttempts)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.Login(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_Lockout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, testEmail)
	ctx := context.Background()

	for range 5 {
		_, err := f.svc.Login(ctx, testEmail, "Wrong1234")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	acc := f.account(t, testEmail)
	assert.True(t, acc.AccountLocked)
	assert.Equal(t, 5, acc.FailedLoginAttempts)
	assert.Equal(t, f.clock.now().Add(30*time.Minute), acc.AccountLockedUntil)
	assert.Len(t, acc.UnlockToken.Value, lockout.UnlockTokenBytes*2)

	mails := f.mailer.sent("account_unlock")
	require.Len(t, mails, 1)
	assert.Equal(t, "Account Locked - Unlock Your Account", mails[0].Subject)
	assert.Equal(t, acc.UnlockToken.Value, tokenFromLink(t, mails[0].BodyHTML))
	assert.Contains(t, mails[0].BodyHTML, "/account/unlock?token=")

	// correct password is refused while locked
	f.clock.advance(10 * time.Minute)
	_, err := f.svc.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, ErrAccountLocked)
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 20, locked.MinutesRemaining)
	assert.Contains(t, UserMessage(err), "20 minutes")

	// lock expires lazily on the next attempt
	f.clock.advance(21 * time.Minute)
	f.login(t, testEmail)

	acc = f.account(t, testEmail)
	assert.False(t, acc.AccountLocked)
	assert.True(t, acc.AccountLockedUntil.IsZero())
	assert.Equal(t, 0, acc.FailedLoginAttempts)
	assert.Len(t, f.mailer.sent("account_unlock"), 1)
}

func TestLogin_ConcurrentFailuresAreSerialized(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, testEmail)

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Login(context.Background(), testEmail, "Wrong1234")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var invalid, locked int
	for err := range errs {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			invalid++
		case errors.Is(err, ErrAccountLocked):
			locked++
		}
	}
	assert.Equal(t, 5, invalid)
	assert.Equal(t, 7, locked)
	assert.Equal(t, 5, f.account(t, testEmail).FailedLoginAttempts)
	assert.Len(t, f.mailer.sent("account_unlock"), 1)
}

func TestTOTPFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, testEmail)
	ctx := context.Background()
	sess := f.login(t, testEmail)

	setup, err := f.svc.BeginTOTPSetup(ctx, sess)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z2-7]{32}$`, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
	u, err := url.Parse(setup.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, setup.Secret, u.Query().Get("secret"))

	acc := f.account(t, testEmail)
	assert.True(t, acc.HasPendingTotpSecret())

	_, err = f.svc.EnableTOTP(ctx, sess, "000000")
	if f.code(t, setup.Secret) != "000000" {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.False(t, f.account(t, testEmail).IsTotpEnabled)

	res, err := f.svc.EnableTOTP(ctx, sess, f.code(t, setup.Secret))
	require.NoError(t, err)
	assert.True(t, res.Session.IsTotpEnabled)
	assert.True(t, res.Session.IsTotpVerified)
	assert.True(t, f.account(t, testEmail).IsTotpEnabled)

	_, err = f.svc.BeginTOTPSetup(ctx, res.Session)
	assert.ErrorIs(t, err, ErrTotpAlreadyEnabled)

	// a fresh login now needs the second factor
	f.clock.advance(time.Minute)
	pending := f.login(t, testEmail)
	assert.True(t, pending.NeedsSecondFactor())
	assert.ErrorIs(t, f.svc.Authenticate(pending), ErrSecondFactorRequired)
	_, err = f.svc.Profile(ctx, pending)
	assert.ErrorIs(t, err, ErrSecondFactorRequired)

	// a code from 20s ago is still inside the window
	code := f.code(t, setup.Secret)
	f.clock.advance(20 * time.Second)
	verified, err := f.svc.VerifyTOTP(ctx, pending, code)
	require.NoError(t, err)
	assert.NoError(t, f.svc.Authenticate(verified.Session))

	disabled, err := f.svc.DisableTOTP(ctx, verified.Session)
	require.NoError(t, err)
	assert.False(t, disabled.Session.IsTotpEnabled)
	assert.True(t, disabled.Session.IsTotpVerified)

	acc = f.account(t, testEmail)
	assert.False(t, acc.IsTotpEnabled)
	assert.Empty(t, acc.TotpSecret)

	_, err = f.svc.DisableTOTP(ctx, disabled.Session)
	assert.ErrorIs(t, err, ErrTotpAlreadyDisabled)
}

func TestVerifyTOTP(t *testing.T) {
	t.Parallel()

	t.Run("wrong codes lock the account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		secret, _ := f.enableTOTP(t, f.login(t, testEmail))
		pending := f.login(t, testEmail)
		ctx := context.Background()

		wrong := "123456"
		if wrong == f.code(t, secret) {
			wrong = "654321"
		}
		for range 5 {
			_, err := f.svc.VerifyTOTP(ctx, pending, wrong)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
		assert.True(t, f.account(t, testEmail).AccountLocked)
		assert.Len(t, f.mailer.sent("account_unlock"), 1)

		_, err := f.svc.VerifyTOTP(ctx, pending, f.code(t, secret))
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("logging in again does not reset second-factor failures", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		secret, _ := f.enableTOTP(t, f.login(t, testEmail))
		ctx := context.Background()

		wrong := "000001"
		if wrong == f.code(t, secret) {
			wrong = "000002"
		}

		var lockedAt int
	rounds:
		for round := 1; round <= 10; round++ {
			res, err := f.svc.Login(ctx, testEmail, testPassword)
			if errors.Is(err, ErrAccountLocked) {
				lockedAt = round
				break
			}
			require.NoError(t, err)
			for range 4 {
				_, err := f.svc.VerifyTOTP(ctx, res.Session, wrong)
				if errors.Is(err, ErrAccountLocked) {
					lockedAt = round
					break rounds
				}
				require.ErrorIs(t, err, ErrInvalidCredentials)
			}
		}

		assert.Equal(t, 2, lockedAt)
		acc := f.account(t, testEmail)
		assert.True(t, acc.AccountLocked)
		assert.Equal(t, 5, acc.FailedLoginAttempts)
	})

	t.Run("verified code resets the counter", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		secret, _ := f.enableTOTP(t, f.login(t, testEmail))
		ctx := context.Background()

		wrong := "000001"
		if wrong == f.code(t, secret) {
			wrong = "000002"
		}
		pending := f.login(t, testEmail)
		for range 3 {
			_, err := f.svc.VerifyTOTP(ctx, pending, wrong)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}

		pending = f.login(t, testEmail)
		assert.Equal(t, 3, f.account(t, testEmail).FailedLoginAttempts)

		_, err := f.svc.VerifyTOTP(ctx, pending, f.code(t, secret))
		require.NoError(t, err)
		assert.Equal(t, 0, f.account(t, testEmail).FailedLoginAttempts)
	})

	t.Run("code outside the window is rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		secret, _ := f.enableTOTP(t, f.login(t, testEmail))
		pending := f.login(t, testEmail)

		code := f.code(t, secret)
		f.clock.advance(95 * time.Second)
		_, err := f.svc.VerifyTOTP(context.Background(), pending, code)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("requires a login", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.VerifyTOTP(context.Background(), session.Data{}, "123456")
		assert.ErrorIs(t, err, ErrAuthenticationRequired)
	})

	t.Run("account without secret", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		sess := f.login(t, testEmail)

		_, err := f.svc.VerifyTOTP(context.Background(), sess, "123456")
		assert.ErrorIs(t, err, ErrTotpNotSetUp)
	})

	t.Run("encrypted secrets", func(t *testing.T) {
		t.Parallel()
		key, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)
		cipher, err := totp.NewSecretCipher(key)
		require.NoError(t, err)

		f := newFixture(t, WithSecretCipher(cipher))
		f.register(t, testEmail)
		secret, _ := f.enableTOTP(t, f.login(t, testEmail))
		assert.NotEqual(t, secret, f.account(t, testEmail).TotpSecret)

		pending := f.login(t, testEmail)
		_, err = f.svc.VerifyTOTP(context.Background(), pending, f.code(t, secret))
		assert.NoError(t, err)
	})
}

func TestVerifyBackupCode(t *testing.T) {
	t.Parallel()

	t.Run("consumes code and disables totp", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		reg := f.register(t, testEmail)
		f.enableTOTP(t, f.login(t, testEmail))
		pending := f.login(t, testEmail)
		ctx := context.Background()

		res, err := f.svc.VerifyBackupCode(ctx, pending, "  "+strings.ToLower(reg.BackupCodes[3])+" ")
		require.NoError(t, err)
		assert.Equal(t, 9, res.Remaining)
		assert.True(t, res.TotpDisabled)
		assert.False(t, res.Session.IsTotpEnabled)
		assert.NoError(t, f.svc.Authenticate(res.Session))

		acc := f.account(t, testEmail)
		assert.False(t, acc.IsTotpEnabled)
		assert.Empty(t, acc.TotpSecret)
		assert.Len(t, acc.BackupCodes, 9)

		_, err = f.svc.VerifyBackupCode(ctx, res.Session, reg.BackupCodes[3])
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, f.account(t, testEmail).FailedLoginAttempts)
	})

	t.Run("no codes available", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		acc := f.account(t, testEmail)
		acc.BackupCodes = []string{}
		_, err := f.store.Save(context.Background(), acc)
		require.NoError(t, err)

		_, err = f.svc.VerifyBackupCode(context.Background(), f.login(t, testEmail), "XYZ99999")
		assert.ErrorIs(t, err, ErrNoBackupCodesAvailable)
		assert.Equal(t, "No backup codes available for this user", UserMessage(err))
		assert.Equal(t, 0, f.account(t, testEmail).FailedLoginAttempts)
	})

	t.Run("regenerate replaces all codes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		reg := f.register(t, testEmail)
		sess := f.login(t, testEmail)

		codes, err := f.svc.RegenerateBackupCodes(context.Background(), sess)
		require.NoError(t, err)
		assert.Len(t, codes, 10)

		_, err = f.svc.VerifyBackupCode(context.Background(), sess, reg.BackupCodes[0])
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.svc.VerifyBackupCode(context.Background(), sess, codes[0])
		assert.NoError(t, err)
	})
}

func TestUnlockAccount(t *testing.T) {
	t.Parallel()

	lock := func(t *testing.T, f *fixture) string {
		t.Helper()
		for range 5 {
			_, _ = f.svc.Login(context.Background(), testEmail, "Wrong1234")
		}
		mails := f.mailer.sent("account_unlock")
		require.NotEmpty(t, mails)
		return tokenFromLink(t, mails[len(mails)-1].BodyHTML)
	}

	t.Run("redeems token once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		token := lock(t, f)
		ctx := context.Background()

		res, err := f.svc.UnlockAccount(ctx, token)
		require.NoError(t, err)
		assert.False(t, res.AlreadyUnlocked)
		assert.Equal(t, testEmail, res.Email)

		acc := f.account(t, testEmail)
		assert.False(t, acc.AccountLocked)
		assert.Equal(t, 0, acc.FailedLoginAttempts)
		assert.True(t, acc.UnlockToken.IsZero())
		f.login(t, testEmail)

		_, err = f.svc.UnlockAccount(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, WithGuard(lockout.New(lockout.Config{
			MaxFailedAttempts: 5,
			LockoutDuration:   48 * time.Hour,
			UnlockTokenTTL:    time.Hour,
			EnableEmailUnlock: true,
		})))
		f.register(t, testEmail)
		token := lock(t, f)

		f.clock.advance(2 * time.Hour)
		_, err := f.svc.UnlockAccount(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
		assert.True(t, f.account(t, testEmail).AccountLocked)
	})

	t.Run("token ends with an expired lock", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		token := lock(t, f)

		f.clock.advance(31 * time.Minute)
		f.login(t, testEmail)
		assert.True(t, f.account(t, testEmail).UnlockToken.IsZero())

		_, err := f.svc.UnlockAccount(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
	})

	t.Run("already unlocked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		ctx := context.Background()

		// a token left on an unlocked record
		acc := f.account(t, testEmail)
		acc.UnlockToken = account.UnlockToken{
			Value:     "abc123",
			IssuedAt:  f.clock.now(),
			ExpiresAt: f.clock.now().Add(time.Hour),
		}
		_, err := f.store.Save(ctx, acc)
		require.NoError(t, err)

		res, err := f.svc.UnlockAccount(ctx, "abc123")
		require.NoError(t, err)
		assert.True(t, res.AlreadyUnlocked)
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.UnlockAccount(context.Background(), "deadbeef")
		assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
		_, err = f.svc.UnlockAccount(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestEmailVerification(t *testing.T) {
	t.Parallel()

	t.Run("verify and resend", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		sess := f.login(t, testEmail)
		ctx := context.Background()

		first := f.account(t, testEmail).EmailVerificationToken
		require.NoError(t, f.svc.ResendVerification(ctx, sess))
		second := f.account(t, testEmail).EmailVerificationToken
		assert.NotEqual(t, first, second)
		assert.Len(t, f.mailer.sent("verify_email"), 2)

		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, first), ErrTokenInvalidOrExpired)
		require.NoError(t, f.svc.VerifyEmail(ctx, second))

		acc := f.account(t, testEmail)
		assert.True(t, acc.IsEmailVerified)
		assert.Empty(t, acc.EmailVerificationToken)

		assert.ErrorIs(t, f.svc.ResendVerification(ctx, sess), ErrEmailAlreadyVerified)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		token := f.account(t, testEmail).EmailVerificationToken

		f.clock.advance(25 * time.Hour)
		assert.ErrorIs(t, f.svc.VerifyEmail(context.Background(), token), ErrTokenInvalidOrExpired)
		assert.False(t, f.account(t, testEmail).IsEmailVerified)
	})

	t.Run("resend reports delivery failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.register(t, testEmail)
		sess := f.login(t, testEmail)
		f.mailer.ExpectedCalls = nil
		f.mailer.On("SendEmail", mock.Anything, mock.Anything).Return(email.ErrFailedToSendEmail)

		assert.ErrorIs(t, f.svc.ResendVerification(context.Background(), sess), ErrEmailNotSent)
	})
}

func TestProfileAndDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, testEmail)
	sess := f.login(t, testEmail)
	ctx := context.Background()

	p, err := f.svc.Profile(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, &Profile{Email: testEmail, BackupCodesLeft: 10}, p)

	header, err := f.svc.DeleteAccount(ctx, sess)
	require.NoError(t, err)
	assert.Contains(t, header, "Max-Age=0")
	assert.Equal(t, header, f.svc.Logout())

	_, err = f.store.FindByEmail(ctx, testEmail)
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = f.svc.Profile(ctx, sess)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = f.svc.DeleteAccount(ctx, sess)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := uuid.New()

	tests := []struct {
		name string
		sess session.Data
		want error
	}{
		{name: "zero session", sess: session.Data{}, want: ErrAuthenticationRequired},
		{name: "logged in without id", sess: session.Data{IsLoggedIn: true}, want: ErrAuthenticationRequired},
		{name: "pending second factor", sess: session.Data{UserID: id, IsLoggedIn: true, IsTotpEnabled: true}, want: ErrSecondFactorRequired},
		{name: "verified", sess: session.Data{UserID: id, IsLoggedIn: true, IsTotpEnabled: true, IsTotpVerified: true}},
		{name: "no totp", sess: session.Data{UserID: id, IsLoggedIn: true, IsTotpVerified: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := f.svc.Authenticate(tt.sess)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdate_RetriesVersionConflicts(t *testing.T) {
	t.Parallel()

	mem := account.NewMemoryStore()
	store := &conflictStore{MemoryStore: mem, conflicts: 2}
	f := newFixtureWithStore(t, store, mem)
	f.register(t, testEmail)

	sess := f.login(t, testEmail)
	_, err := f.svc.RegenerateBackupCodes(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 0, store.conflicts)
}

func TestUpdate_StoreFailureIsUnexpected(t *testing.T) {
	t.Parallel()

	mem := account.NewMemoryStore()
	f := newFixtureWithStore(t, &brokenStore{MemoryStore: mem}, mem)
	f.register(t, testEmail)

	_, err := f.svc.Login(context.Background(), testEmail, "Wrong1234")
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "An unexpected error occurred", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidCredentials, "Invalid credentials"},
		{&LockedError{MinutesRemaining: 12}, "Account is locked due to too many failed attempts. Try again in 12 minutes."},
		{ErrSetup, "Failed to set up two-factor authentication"},
		{ErrTokenInvalidOrExpired, "Invalid or expired token"},
		{ErrAuthenticationRequired, "Authentication required"},
		{errors.Join(ErrUnexpected, errDiskFull), "An unexpected error occurred"},
		{errDiskFull, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
}

func TestAuditTrail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	reg := f.register(t, "audit@example.com")

	for range 5 {
		_, err := f.svc.Login(ctx, "audit@example.com", "Wrong1234")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, "audit@example.com", testPassword)
	require.ErrorIs(t, err, ErrAccountLocked)

	token := f.account(t, "audit@example.com").UnlockToken.Value
	_, err = f.svc.UnlockAccount(ctx, token)
	require.NoError(t, err)
	f.login(t, "audit@example.com")

	_, err = f.svc.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	events, err := f.events.Query(ctx, audit.Criteria{AccountID: reg.Account.ID})
	require.NoError(t, err)

	var actions []audit.Action
	for i := len(events) - 1; i >= 0; i-- {
		actions = append(actions, events[i].Action)
	}
	assert.Equal(t, []audit.Action{
		audit.ActionRegistered,
		audit.ActionLoginFailed,
		audit.ActionLoginFailed,
		audit.ActionLoginFailed,
		audit.ActionLoginFailed,
		audit.ActionLoginFailed,
		audit.ActionAccountLocked,
		audit.ActionAccountUnlocked,
		audit.ActionLoginSucceeded,
	}, actions)

	failed, err := f.events.Query(ctx, audit.Criteria{Actions: []audit.Action{audit.ActionLoginFailed}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, audit.ResultFailure, failed[0].Result)
	assert.Equal(t, ErrInvalidCredentials.Error(), failed[0].Reason)
	assert.Equal(t, 5, failed[0].Metadata["attempts"])
	assert.Equal(t, "a***@example.com", failed[0].Email)

	assert.Equal(t, 9, f.events.Len(), "unknown emails are not audited")
}
