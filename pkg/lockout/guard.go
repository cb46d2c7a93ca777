package lockout

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"math"
	"time"

	"github.com/securekey/authcore/pkg/account"
)

// UnlockTokenBytes is the entropy of an unlock token before hex encoding.
const UnlockTokenBytes = 32

// Effect is a side effect the caller must perform after a transition.
type Effect int

const (
	EffectPersist Effect = iota + 1
	EffectSendUnlockEmail
)

func (e Effect) String() string {
	switch e {
	case EffectPersist:
		return "persist"
	case EffectSendUnlockEmail:
		return "send_unlock_email"
	default:
		return "unknown"
	}
}

// Outcome is the result of a guard operation.
type Outcome struct {
	Account         account.Account
	From            State
	To              State
	Effects         []Effect
	AlreadyUnlocked bool
}

// Has reports whether the outcome requests effect e.
func (o Outcome) Has(e Effect) bool {
	for _, have := range o.Effects {
		if have == e {
			return true
		}
	}
	return false
}

// Locked reports whether the account is locked after the transition.
func (o Outcome) Locked() bool {
	return o.To == StateLocked
}

// Status is the read-only view of an account's lock.
type Status struct {
	Locked           bool
	ShouldAutoUnlock bool
	TimeLeft         time.Duration
}

// MinutesRemaining rounds TimeLeft up to whole minutes.
func (s Status) MinutesRemaining() int {
	if s.TimeLeft <= 0 {
		return 0
	}
	return int(math.Ceil(s.TimeLeft.Minutes()))
}

// Guard applies the lockout policy.
type Guard struct {
	cfg     Config
	rand    io.Reader
	machine *machine
}

// Option configures a Guard.
type Option func(*Guard)

// WithRandom replaces the token entropy source.
func WithRandom(r io.Reader) Option {
	return func(g *Guard) {
		if r != nil {
			g.rand = r
		}
	}
}

// New creates a guard. Zero or negative config values fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Guard {
	def := DefaultConfig()
	if cfg.MaxFailedAttempts < 1 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.UnlockTokenTTL <= 0 {
		cfg.UnlockTokenTTL = def.UnlockTokenTTL
	}

	g := &Guard{cfg: cfg, rand: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	g.machine = g.buildMachine()
	return g
}

// Config returns the effective configuration.
func (g *Guard) Config() Config {
	return g.cfg
}

func (g *Guard) buildMachine() *machine {
	m := newMachine()

	m.add(transition{
		from: StateUnlocked, to: StateLocked, event: EventFailure,
		guards:  []guard{g.reachesThreshold},
		actions: []action{increment, g.lock, persist},
	})
	m.add(transition{
		from: StateUnlocked, to: StateUnlocked, event: EventFailure,
		actions: []action{increment, persist},
	})
	m.add(transition{
		from: StateLocked, to: StateLocked, event: EventFailure,
		actions: []action{increment, persist},
	})

	m.add(transition{
		from: StateUnlocked, to: StateUnlocked, event: EventSuccess,
		guards:  []guard{hasFailures},
		actions: []action{resetCounter, persist},
	})
	m.add(transition{
		from: StateUnlocked, to: StateUnlocked, event: EventSuccess,
	})
	m.add(transition{
		from: StateLocked, to: StateUnlocked, event: EventSuccess,
		actions: []action{unlock, clearToken, persist},
	})

	m.add(transition{
		from: StateLocked, to: StateUnlocked, event: EventExpire,
		guards:  []guard{lockPassed},
		actions: []action{unlock, clearToken, persist},
	})

	m.add(transition{
		from: StateLocked, to: StateUnlocked, event: EventRedeem,
		guards:  []guard{tokenMatches, tokenFresh},
		actions: []action{unlock, clearToken, persist},
	})
	m.add(transition{
		from: StateUnlocked, to: StateUnlocked, event: EventRedeem,
	})

	return m
}

// ComputeLockStatus reports the lock state at now without changing anything.
func (g *Guard) ComputeLockStatus(acc account.Account, now time.Time) Status {
	if !acc.AccountLocked {
		return Status{}
	}
	if acc.AccountLockedUntil.IsZero() {
		return Status{Locked: true}
	}
	if !now.Before(acc.AccountLockedUntil) {
		return Status{ShouldAutoUnlock: true}
	}
	return Status{Locked: true, TimeLeft: acc.AccountLockedUntil.Sub(now)}
}

// ApplyAutoUnlock clears a lock whose time has passed.
// When the lock is still active the outcome carries no effects.
func (g *Guard) ApplyAutoUnlock(acc account.Account, now time.Time) Outcome {
	out, err := g.run(EventExpire, acc, now, "")
	if err != nil {
		st := StateOf(acc)
		return Outcome{Account: acc.Clone(), From: st, To: st}
	}
	return out
}

// RecordFailure counts a failed attempt and locks the account when the threshold is reached.
func (g *Guard) RecordFailure(acc account.Account, now time.Time) (Outcome, error) {
	return g.run(EventFailure, acc, now, "")
}

// RecordSuccess resets the failure counter. Persist is requested only when something changed.
func (g *Guard) RecordSuccess(acc account.Account, now time.Time) Outcome {
	out, err := g.run(EventSuccess, acc, now, "")
	if err != nil {
		st := StateOf(acc)
		return Outcome{Account: acc.Clone(), From: st, To: st}
	}
	return out
}

// Redeem consumes an unlock token.
// An account that is not locked reports AlreadyUnlocked and is left as is.
func (g *Guard) Redeem(acc account.Account, token string, now time.Time) (Outcome, error) {
	out, err := g.run(EventRedeem, acc, now, token)
	if err != nil {
		if IsTransitionError(err) {
			return Outcome{}, ErrTokenInvalidOrExpired
		}
		return Outcome{}, err
	}
	out.AlreadyUnlocked = out.From == StateUnlocked
	return out, nil
}

func (g *Guard) run(event Event, acc account.Account, now time.Time, token string) (Outcome, error) {
	s := &step{acc: acc.Clone(), now: now, token: token}
	from := StateOf(s.acc)

	to, err := g.machine.fire(event, s)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Account: s.acc,
		From:    from,
		To:      to,
		Effects: s.effects,
	}, nil
}

func (g *Guard) reachesThreshold(s *step) bool {
	return s.acc.FailedLoginAttempts+1 >= g.cfg.MaxFailedAttempts
}

func (g *Guard) lock(s *step) error {
	s.acc.AccountLocked = true
	s.acc.AccountLockedUntil = s.now.Add(g.cfg.LockoutDuration)
	s.acc.UnlockToken = account.UnlockToken{}
	if !g.cfg.EnableEmailUnlock {
		return nil
	}

	value, err := g.newToken()
	if err != nil {
		return err
	}
	s.acc.UnlockToken = account.UnlockToken{
		Value:     value,
		IssuedAt:  s.now,
		ExpiresAt: s.now.Add(g.cfg.UnlockTokenTTL),
	}
	s.emit(EffectSendUnlockEmail)
	return nil
}

func (g *Guard) newToken() (string, error) {
	buf := make([]byte, UnlockTokenBytes)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", errors.Join(ErrFailedToGenerateToken, err)
	}
	return hex.EncodeToString(buf), nil
}

func hasFailures(s *step) bool {
	return s.acc.FailedLoginAttempts > 0
}

func lockPassed(s *step) bool {
	return !s.acc.AccountLockedUntil.IsZero() && !s.now.Before(s.acc.AccountLockedUntil)
}

func tokenMatches(s *step) bool {
	return s.token != "" && s.acc.UnlockToken.Value == s.token
}

func tokenFresh(s *step) bool {
	return !s.acc.UnlockToken.Expired(s.now)
}

func increment(s *step) error {
	s.acc.FailedLoginAttempts++
	return nil
}

func resetCounter(s *step) error {
	s.acc.FailedLoginAttempts = 0
	return nil
}

func unlock(s *step) error {
	s.acc.AccountLocked = false
	s.acc.AccountLockedUntil = time.Time{}
	s.acc.FailedLoginAttempts = 0
	return nil
}

func clearToken(s *step) error {
	s.acc.UnlockToken = account.UnlockToken{}
	return nil
}

func persist(s *step) error {
	s.emit(EffectPersist)
	return nil
}
