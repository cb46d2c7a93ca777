package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/auth"
	"github.com/securekey/authcore/pkg/config"
	"github.com/securekey/authcore/pkg/email"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/mongo"
	"github.com/securekey/authcore/pkg/pg"
	"github.com/securekey/authcore/pkg/qrcode"
	"github.com/securekey/authcore/pkg/redis"
	"github.com/securekey/authcore/pkg/session"
	"github.com/securekey/authcore/pkg/totp"
)

var (
	ErrStoreUnavailable  = errors.New("account store unavailable")
	ErrLockerUnavailable = errors.New("locker unavailable")
	ErrMailerUnavailable = errors.New("email sender unavailable")
	ErrHealthcheck       = errors.New("healthcheck failed")
)

// App holds the wired authentication service and the resources behind it.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Store  account.Store
	Sealer *session.Sealer
	Auth   *auth.Service
	// Audit is nil when AUDIT_ENABLED is false.
	Audit audit.Querier

	auditStore auditStore
	checks     map[string]func(context.Context) error
	closers    []func(context.Context) error
}

type auditStore interface {
	audit.BatchWriter
	audit.Querier
}

type Option func(*options)

type options struct {
	logger *slog.Logger
	mailer email.EmailSender
}

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMailer replaces the sender built from cfg.Email.
func WithMailer(m email.EmailSender) Option {
	return func(o *options) {
		o.mailer = m
	}
}

// New connects the configured store and locker and builds the auth service.
// On error everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewFromConfig(cfg.Log, cfg.AppEnv, cfg.ServiceName)
	}

	a := &App{
		Config: cfg,
		Logger: o.logger,
		checks: make(map[string]func(context.Context) error),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if a.Store, err = a.openStore(ctx); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	locker, err := a.openLocker(ctx)
	if err != nil {
		return nil, errors.Join(ErrLockerUnavailable, err)
	}

	mailer := o.mailer
	if mailer == nil {
		if mailer, err = email.NewFromConfig(cfg.Email); err != nil {
			return nil, errors.Join(ErrMailerUnavailable, err)
		}
	}

	a.Sealer, err = session.NewFromConfig(cfg.Session, session.WithLogger(a.Logger))
	if err != nil {
		return nil, err
	}

	svcOpts := []auth.Option{
		auth.WithConfig(cfg.Auth),
		auth.WithGuard(lockout.New(cfg.Lockout)),
		auth.WithTOTPEngine(totp.NewFromConfig(cfg.TOTP)),
		auth.WithQRCodeRenderer(qrcode.NewRenderer()),
		auth.WithHasher(auth.NewBcryptHasher(cfg.Auth.BcryptCost)),
		auth.WithLogger(a.Logger),
	}
	if locker != nil {
		svcOpts = append(svcOpts, auth.WithLocker(locker))
	}
	if rec := a.openAudit(); rec != nil {
		svcOpts = append(svcOpts, auth.WithAuditRecorder(rec))
	}
	if cfg.TOTP.EncryptionKey != "" {
		cipher, err := totp.NewSecretCipherFromConfig(cfg.TOTP)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, auth.WithSecretCipher(cipher))
	}

	a.Auth = auth.New(a.Store, a.Sealer, mailer, svcOpts...)

	a.Logger.InfoContext(ctx, "auth service ready",
		logger.Component("app"),
		slog.String("store", string(cfg.Store)),
		slog.String("locker", string(cfg.Locker)),
		slog.String("email_provider", string(cfg.Email.Provider)),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (account.Store, error) {
	cfg := a.Config
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error {
			pool.Close()
			return nil
		})
		a.checks["postgres"] = pg.Healthcheck(pool)

		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx, pool, cfg.Postgres, a.Logger); err != nil {
				return nil, err
			}
		}
		a.auditStore = pg.NewAuditStore(pool)
		return pg.NewAccountStore(pool), nil

	case config.StoreMongo:
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.onClose(db.Client().Disconnect)
		a.checks["mongo"] = mongo.Healthcheck(db.Client())
		if cfg.Audit.Enabled {
			if a.auditStore, err = mongo.NewAuditStore(ctx, db.Collection(cfg.Mongo.AuditCollection)); err != nil {
				return nil, err
			}
		}
		return mongo.NewAccountStore(ctx, db.Collection(cfg.Mongo.Collection))

	default:
		a.auditStore = audit.NewMemoryStorage(cfg.Audit.MemoryCapacity)
		return account.NewMemoryStore(), nil
	}
}

// openAudit returns nil when auditing is disabled. Durable stores are written
// through an AsyncWriter that is flushed on Close.
func (a *App) openAudit() *audit.Recorder {
	if !a.Config.Audit.Enabled || a.auditStore == nil {
		return nil
	}
	a.Audit = a.auditStore

	var storage audit.Storage
	if mem, ok := a.auditStore.(*audit.MemoryStorage); ok {
		storage = mem
	} else {
		opts := a.Config.Audit.AsyncOptions()
		opts.Logger = a.Logger
		w := audit.NewAsyncWriter(a.auditStore, opts)
		a.onClose(w.Close)
		storage = w
	}
	return audit.NewRecorder(storage)
}

// openLocker returns nil for the in-process default.
func (a *App) openLocker(ctx context.Context) (auth.Locker, error) {
	if a.Config.Locker != config.LockerRedis {
		return nil, nil
	}
	client, err := redis.Connect(ctx, a.Config.Redis)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return client.Close() })
	a.checks["redis"] = redis.Healthcheck(client)
	return redis.NewLocker(client, a.Config.Redis, redis.WithLogger(a.Logger)), nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Healthcheck pings every external dependency and reports all failures.
func (a *App) Healthcheck(ctx context.Context) error {
	names := make([]string, 0, len(a.checks))
	for name := range a.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := a.checks[name](ctx); err != nil {
			a.Logger.ErrorContext(ctx, "dependency unhealthy", logger.Component(name), logger.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(ErrHealthcheck, errors.Join(errs...))
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
