package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/email"
	"github.com/securekey/authcore/pkg/email/templates"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/qrcode"
	"github.com/securekey/authcore/pkg/session"
	"github.com/securekey/authcore/pkg/totp"
)

// VerificationTokenBytes is the entropy of an email verification token before hex encoding.
const VerificationTokenBytes = 16

// Service composes the lockout guard, TOTP engine, backup codes and session sealer into
// the account authentication flows.
type Service struct {
	cfg     Config
	store   account.Store
	sealer  *session.Sealer
	mailer  email.EmailSender
	guard   *lockout.Guard
	otp     *totp.Engine
	qr      *qrcode.Renderer
	cipher  *totp.SecretCipher
	hasher  Hasher
	locker  Locker
	audit   *audit.Recorder
	logger  *slog.Logger
	now     func() time.Time
	dummyPw string
}

type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func WithGuard(g *lockout.Guard) Option {
	return func(s *Service) {
		s.guard = g
	}
}

func WithTOTPEngine(e *totp.Engine) Option {
	return func(s *Service) {
		s.otp = e
	}
}

func WithQRCodeRenderer(r *qrcode.Renderer) Option {
	return func(s *Service) {
		s.qr = r
	}
}

// WithSecretCipher encrypts TOTP secrets before they reach the store.
func WithSecretCipher(c *totp.SecretCipher) Option {
	return func(s *Service) {
		s.cipher = c
	}
}

func WithHasher(h Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithLocker replaces the in-process locker, e.g. with pkg/redis.Locker.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithAuditRecorder records security events such as failed logins and lockouts.
func WithAuditRecorder(r *audit.Recorder) Option {
	return func(s *Service) {
		s.audit = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock sets the time source for lockout and token expiry.
// The TOTP engine keeps its own clock, see totp.WithClock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the orchestrator. store, sealer and mailer are required.
func New(store account.Store, sealer *session.Sealer, mailer email.EmailSender, opts ...Option) *Service {
	s := &Service{
		cfg:    DefaultConfig(),
		store:  store,
		sealer: sealer,
		mailer: mailer,
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.guard == nil {
		s.guard = lockout.New(lockout.DefaultConfig())
	}
	if s.otp == nil {
		s.otp = totp.NewEngine()
	}
	if s.qr == nil {
		s.qr = qrcode.NewRenderer()
	}
	if s.hasher == nil {
		s.hasher = NewBcryptHasher(s.cfg.BcryptCost)
	}
	if s.locker == nil {
		s.locker = NewMemoryLocker()
	}
	s.logger = s.logger.With(logger.Component("auth"))

	// compared against on unknown emails so both paths cost one bcrypt run
	if h, err := s.hasher.Hash("unknown-account-placeholder"); err == nil {
		s.dummyPw = h
	}
	return s
}

// mutation is applied to a fresh copy of the account under the per-account lock.
// It returns the next state and whether to persist it. A non-nil error is returned
// to the caller after persisting, so a failed attempt can still be recorded.
type mutation func(acc account.Account) (next account.Account, save bool, err error)

// update loads the account by id, applies fn and saves, retrying on version conflicts.
func (s *Service) update(ctx context.Context, id uuid.UUID, fn mutation) (account.Account, error) {
	unlock, err := s.locker.Lock(ctx, "account:"+id.String())
	if err != nil {
		return account.Account{}, s.unexpected(ctx, "failed to acquire account lock", err)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		acc, err := s.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return account.Account{}, ErrAccountNotFound
			}
			return account.Account{}, s.unexpected(ctx, "failed to load account", err)
		}

		next, save, fnErr := fn(acc.Clone())
		if !save {
			return next, fnErr
		}

		saved, err := s.store.Save(ctx, next)
		if err == nil {
			return saved, fnErr
		}
		if errors.Is(err, account.ErrVersionConflict) && attempt < s.cfg.ConflictRetries {
			s.logger.DebugContext(ctx, "retrying account update after version conflict",
				logger.UserID(id.String()),
				logger.RetryCount(attempt+1),
			)
			continue
		}
		return account.Account{}, s.unexpected(ctx, "failed to save account", err)
	}
}

// load fetches the account behind a session.
func (s *Service) load(ctx context.Context, sess session.Data) (account.Account, error) {
	acc, err := s.store.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, ErrAccountNotFound
		}
		return account.Account{}, s.unexpected(ctx, "failed to load account", err)
	}
	return acc, nil
}

// issue seals sess and builds its Set-Cookie header.
func (s *Service) issue(ctx context.Context, sess session.Data) (*SessionResult, error) {
	token, err := s.sealer.Seal(sess)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to seal session", err)
	}
	header, err := s.sealer.SetCookieHeader(token)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to build session cookie", err)
	}
	return &SessionResult{Session: sess, Cookie: header}, nil
}

// unexpected logs an internal failure and hides it behind ErrUnexpected.
func (s *Service) unexpected(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, logger.Error(err))
	return errors.Join(ErrUnexpected, err)
}

// record writes an audit event for acc. Failures are logged and never fail the flow.
func (s *Service) record(ctx context.Context, action audit.Action, acc account.Account, opts ...audit.EventOption) {
	if s.audit == nil {
		return
	}
	opts = append([]audit.EventOption{audit.WithAccount(acc.ID, acc.Email)}, opts...)
	if err := s.audit.Record(context.WithoutCancel(ctx), action, opts...); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event",
			logger.Event(string(action)),
			logger.UserID(acc.ID.String()),
			logger.Error(err),
		)
	}
}

func (s *Service) sealSecret(plain string) (string, error) {
	if s.cipher == nil {
		return plain, nil
	}
	return s.cipher.Encrypt(plain)
}

func (s *Service) openSecret(stored string) (string, error) {
	if s.cipher == nil {
		return stored, nil
	}
	return s.cipher.Decrypt(stored)
}

// send renders tpl and mails it. Failures are logged and reported as false.
func (s *Service) send(ctx context.Context, to, subject, tag string, tpl templ.Component) bool {
	// delivery outlives a cancelled request
	ctx = context.WithoutCancel(ctx)
	if s.cfg.EmailSendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmailSendTimeout)
		defer cancel()
	}

	body, err := templates.Render(ctx, tpl)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render email", logger.Event(tag), logger.Error(err))
		return false
	}
	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: body,
		Tag:      tag,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to send email",
			logger.Event(tag),
			logger.Email(to),
			logger.Error(err),
		)
		return false
	}
	return true
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrUnexpected, err)
	}
	return hex.EncodeToString(b), nil
}
