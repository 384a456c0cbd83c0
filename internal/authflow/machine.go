package authflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/retry.v1"
	"gopkg.in/tomb.v2"

	"replex/pkg/plextv"
)

// Defaults for Config.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 150
	DefaultMaxRetries   = 3
)

// ErrCancelled is returned by Wait when the flow is cancelled before it ends.
var ErrCancelled = errors.New("authorization cancelled")

// PinClient is the subset of the plex.tv client the flow needs.
type PinClient interface {
	GeneratePin(ctx context.Context) (*plextv.Pin, error)
	CheckPin(ctx context.Context, id int, code string) (*plextv.Pin, error)
}

// TokenSaver persists the token obtained by the flow.
type TokenSaver interface {
	SaveToken(token string) error
}

// Config bounds the flow. Zero values select the defaults.
type Config struct {
	// PollInterval is the time between PIN checks.
	PollInterval time.Duration

	// MaxAttempts is the number of checks per PIN before it times out.
	MaxAttempts int

	// MaxRetries is the number of fresh PINs requested after a timeout
	// before the flow fails. Negative selects the default; zero disables
	// automatic retries.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// DefaultConfig returns the standard bounds: a check every 2s, 150 checks
// per PIN (about five minutes) and 3 automatic retries.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Machine drives the PIN authorization flow.
//
// At most one flow runs at a time. Starting a new flow kills the running one
// and waits for it to exit before the first request of the new flow, so two
// polling loops never race to store a token. Only the current flow may
// change the status; a cancelled flow makes no further transitions.
type Machine struct {
	client PinClient
	store  TokenSaver
	cfg    Config
	logger *slog.Logger

	// ctrlMu serializes Start, Retry and Cancel.
	ctrlMu sync.Mutex

	mu          sync.Mutex
	flow        *tomb.Tomb
	cancelled   chan struct{}
	status      Status
	retries     int
	subscribers map[chan Status]struct{}
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// NewMachine creates an idle Machine.
func NewMachine(client PinClient, store TokenSaver, cfg Config, opts ...Option) *Machine {
	m := &Machine{
		client:      client,
		store:       store,
		cfg:         cfg.withDefaults(),
		logger:      slog.Default(),
		cancelled:   make(chan struct{}),
		status:      Status{State: StateIdle},
		subscribers: make(map[chan Status]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start begins a new flow, cancelling any flow in progress. The automatic
// retry counter is kept.
func (m *Machine) Start() {
	m.ctrlMu.Lock()
	defer m.ctrlMu.Unlock()

	m.start()
}

// Retry resets the automatic retry counter and begins a new flow from any
// state.
func (m *Machine) Retry() {
	m.ctrlMu.Lock()
	defer m.ctrlMu.Unlock()

	m.mu.Lock()
	m.retries = 0
	m.mu.Unlock()

	m.start()
}

// Cancel stops the running flow. No request is issued and no transition
// happens after Cancel returns. The status keeps its last value.
func (m *Machine) Cancel() {
	m.ctrlMu.Lock()
	defer m.ctrlMu.Unlock()

	if m.stopFlow() {
		m.mu.Lock()
		close(m.cancelled)
		m.mu.Unlock()
		m.logger.Info("Authorization flow cancelled")
	}
}

// Subscribe returns a channel that always holds the latest status. The
// current status is delivered immediately; intermediate values may be
// skipped when the reader is slow. Call the returned function to unsubscribe.
func (m *Machine) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	ch <- m.status
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, ch)
			m.mu.Unlock()
		})
	}
}

// Wait blocks until the flow reaches a terminal state and returns it.
// It returns ErrCancelled if the flow is cancelled first, or the context
// error if ctx is done first.
func (m *Machine) Wait(ctx context.Context) (Status, error) {
	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.mu.Lock()
	cancelled := m.cancelled
	m.mu.Unlock()

	for {
		select {
		case st := <-updates:
			if st.State.Terminal() {
				return st, nil
			}
		case <-cancelled:
			if st := m.Status(); st.State.Terminal() {
				return st, nil
			}
			return m.Status(), ErrCancelled
		case <-ctx.Done():
			return m.Status(), ctx.Err()
		}
	}
}

// start replaces the running flow. Caller holds ctrlMu.
func (m *Machine) start() {
	m.stopFlow()

	t := &tomb.Tomb{}

	m.mu.Lock()
	m.flow = t
	select {
	case <-m.cancelled:
		m.cancelled = make(chan struct{})
	default:
	}
	m.setStatusLocked(Status{State: StateGenerating, Retry: m.retries})
	m.mu.Unlock()

	m.logger.Info("Authorization flow started")
	t.Go(func() error {
		return m.run(t)
	})
}

// stopFlow kills the running flow and waits for it to exit. Caller holds
// ctrlMu. Reports whether a flow was running.
func (m *Machine) stopFlow() bool {
	m.mu.Lock()
	t := m.flow
	m.flow = nil
	m.mu.Unlock()

	if t == nil {
		return false
	}
	t.Kill(nil)
	_ = t.Wait()
	return true
}

// run is the body of one flow: generate a PIN, poll it, and start over with
// a fresh PIN when it times out until the retry budget is spent.
func (m *Machine) run(t *tomb.Tomb) error {
	ctx := t.Context(nil)

	for {
		pin, err := m.client.GeneratePin(ctx)
		if !t.Alive() {
			return nil
		}
		if err != nil {
			msg := MessageStartFailed
			if plextv.IsKind(err, plextv.KindParse) {
				msg = MessageGeneric
			}
			m.logger.Warn("Failed to generate PIN", "kind", plextv.KindOf(err).String(), "error", err.Error())
			m.fail(t, msg, err)
			return nil
		}

		base := Status{
			Code:      pin.DisplayCode(),
			PinID:     pin.ID,
			ExpiresIn: pin.Expiry(),
		}
		m.logger.Debug("PIN generated", "pin_id", pin.ID, "expires_in", base.ExpiresIn)

		awaiting := base
		awaiting.State = StateAwaitingUser
		if !m.publish(t, awaiting) {
			return nil
		}
		polling := base
		polling.State = StatePolling
		if !m.publish(t, polling) {
			return nil
		}

		token, err := m.poll(ctx, t, pin, base)
		if !t.Alive() {
			return nil
		}

		switch {
		case err == nil:
			m.succeed(t, token, base)
			return nil

		case plextv.IsKind(err, plextv.KindTimeout):
			if !m.timedOut(t, err) {
				return nil
			}

		default:
			m.logger.Warn("PIN check failed", "kind", plextv.KindOf(err).String(), "error", err.Error())
			m.fail(t, MessageGeneric, err)
			return nil
		}
	}
}

// poll checks the PIN at a fixed interval until it carries a token, the
// attempt budget is spent, or the flow dies. A failed check of any kind
// counts as a spent attempt and polling continues.
func (m *Machine) poll(ctx context.Context, t *tomb.Tomb, pin *plextv.Pin, base Status) (string, error) {
	// Min keeps Regular going for the whole budget; Total is unused.
	strategy := retry.LimitCount(m.cfg.MaxAttempts, retry.Regular{
		Delay: m.cfg.PollInterval,
		Min:   m.cfg.MaxAttempts,
	})

	attempts := 0
	for a := retry.Start(strategy, flowClock{t: t}); a.Next(); {
		select {
		case <-t.Dying():
			return "", tomb.ErrDying
		default:
		}

		attempts++
		checked, err := m.client.CheckPin(ctx, pin.ID, pin.Code)
		if !t.Alive() {
			return "", tomb.ErrDying
		}
		if err != nil {
			if plextv.IsKind(err, plextv.KindParse) {
				m.logger.Warn("Malformed PIN check response, will retry", "attempt", attempts, "error", err.Error())
			} else {
				m.logger.Debug("PIN check failed, will retry", "attempt", attempts, "kind", plextv.KindOf(err).String())
			}
		} else if checked.HasToken() {
			return strings.TrimSpace(checked.AuthToken), nil
		}

		st := base
		st.State = StatePolling
		st.Attempt = attempts
		if !m.publish(t, st) {
			return "", tomb.ErrDying
		}
	}

	return "", plextv.NewTimeoutError(attempts)
}

// timedOut handles an expired PIN. It reports whether the flow should
// continue with a fresh PIN.
func (m *Machine) timedOut(t *tomb.Tomb, cause error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		return false
	}

	m.retries++
	if m.retries > m.cfg.MaxRetries {
		m.logger.Warn("Authorization timed out, giving up", "retries", m.retries-1)
		m.retries = 0
		m.setStatusLocked(Status{State: StateFailed, Message: MessageRetriesExhausted, Err: cause})
		return false
	}

	m.logger.Info("PIN expired without authorization, requesting a new one", "retry", m.retries, "max_retries", m.cfg.MaxRetries)
	m.setStatusLocked(Status{State: StateGenerating, Retry: m.retries})
	return true
}

// succeed stores the token and ends the flow. The token is written under the
// lock so a flow replaced in the meantime cannot overwrite a newer one.
func (m *Machine) succeed(t *tomb.Tomb, token string, base Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		return
	}

	m.retries = 0
	if err := m.store.SaveToken(token); err != nil {
		m.logger.Error("Failed to store auth token", "error", err.Error())
		m.setStatusLocked(Status{State: StateFailed, Message: MessageGeneric, Err: err})
		return
	}

	m.logger.Info("Authorization complete", "pin_id", base.PinID)
	st := base
	st.State = StateAuthenticated
	m.setStatusLocked(st)
}

func (m *Machine) fail(t *tomb.Tomb, msg string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		return
	}
	m.retries = 0
	m.setStatusLocked(Status{State: StateFailed, Message: msg, Err: cause})
}

// publish sets the status if t is still the current, live flow.
func (m *Machine) publish(t *tomb.Tomb, st Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		return false
	}
	st.Retry = m.retries
	m.setStatusLocked(st)
	return true
}

func (m *Machine) currentLocked(t *tomb.Tomb) bool {
	return m.flow == t && t.Alive()
}

// setStatusLocked stores st and hands it to every subscriber, replacing any
// value they have not read yet. Caller holds m.mu.
func (m *Machine) setStatusLocked(st Status) {
	m.status = st
	for ch := range m.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// flowClock is the retry clock for a flow. Sleeps end early when the flow
// starts dying so the poll loop can observe it without waiting an interval.
type flowClock struct {
	t *tomb.Tomb
}

func (c flowClock) Now() time.Time {
	return time.Now()
}

func (c flowClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	timer := time.NewTimer(d)
	go func() {
		defer timer.Stop()
		select {
		case now := <-timer.C:
			ch <- now
		case <-c.t.Dying():
			ch <- time.Now()
		}
	}()
	return ch
}
