// Package session owns the client-side session lifecycle: the bearer token,
// its durable copy, the inactivity countdown, and forced logout. It is the
// single writer of token state; screens go through Login and Logout.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bankoneone/teller/internal/authstore"
)

// DefaultInactivityWindow is how long a session survives without any tracked
// user activity.
const DefaultInactivityWindow = 2 * time.Minute

// State is the session lifecycle state. There is no independent
// "authenticated" flag anywhere: state is derived from token presence.
type State int

const (
	// Anonymous means no token is held; the user must log in.
	Anonymous State = iota
	// Active means a token is held and the inactivity countdown is running.
	Active
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "ANONYMOUS"
	case Active:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// Reason says why a session was ended by the system rather than the user.
type Reason int

const (
	// ReasonInactivity means the inactivity window elapsed.
	ReasonInactivity Reason = iota
	// ReasonAuthRejected means the backend rejected the token on a
	// protected endpoint.
	ReasonAuthRejected
)

func (r Reason) String() string {
	switch r {
	case ReasonInactivity:
		return "inactivity"
	case ReasonAuthRejected:
		return "auth rejected"
	default:
		return "unknown"
	}
}

// Config configures a Manager.
type Config struct {
	// InactivityWindow is the inactivity timeout. Zero means
	// DefaultInactivityWindow.
	InactivityWindow time.Duration

	// Logger receives session lifecycle events.
	Logger zerolog.Logger
}

// Manager is the single source of truth for "is the user logged in". It
// persists the token through an authstore.Store, arms a cancellable
// inactivity timer, and converges every session-ending path (user logout,
// timer elapse, rejected token) onto one cleanup routine.
type Manager struct {
	mu       sync.Mutex
	store    *authstore.Store
	token    string
	window   time.Duration
	timer    *time.Timer
	timerGen uint64
	deadline time.Time

	onForcedLogout func(Reason)

	// activity throttles timer resets so NoteActivity stays cheap under
	// pointer-move storms. The interval is small relative to the window, so
	// throttled calls can never cost a live session its reset.
	activity *rate.Limiter

	log zerolog.Logger
}

// NewManager creates a Manager backed by store. No session is established
// until Login or Resume.
func NewManager(store *authstore.Store, cfg Config) *Manager {
	window := cfg.InactivityWindow
	if window <= 0 {
		window = DefaultInactivityWindow
	}
	debounce := window / 4
	if debounce > time.Second {
		debounce = time.Second
	}
	return &Manager{
		store:    store,
		window:   window,
		activity: rate.NewLimiter(rate.Every(debounce), 1),
		log:      cfg.Logger,
	}
}

// OnForcedLogout registers fn to be called (off the caller's goroutine for
// timer expiry) whenever the session is ended by the system. Registering
// replaces any earlier callback.
func (m *Manager) OnForcedLogout(fn func(Reason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onForcedLogout = fn
}

// Resume restores a session from the persisted token, if one exists.
// Returns true when a session was restored.
func (m *Manager) Resume() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.store.Token()
	if token == "" {
		return false
	}
	m.token = token
	m.armTimerLocked()
	m.log.Info().Msg("session resumed from stored token")
	return true
}

// Login establishes a session from a freshly issued token: persists it,
// mirrors it in memory, and starts the inactivity countdown. An empty token
// is a no-op — callers must treat that as "login not established".
func (m *Manager) Login(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SetToken(token); err != nil {
		m.log.Warn().Err(err).Msg("persist token failed; session is memory-only")
	}
	m.token = token
	m.armTimerLocked()
	m.log.Info().Msg("session started")
}

// Logout ends the session: clears durable and in-memory token state and
// cancels the inactivity timer. Idempotent — a second call is a safe no-op.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return
	}
	m.clearLocked()
	m.log.Info().Msg("session ended by user")
}

// Token returns the current bearer token, or "" when anonymous. It satisfies
// the client's TokenSource, so every outbound request reads token state at
// send time.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether a session token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	if m.IsAuthenticated() {
		return Active
	}
	return Anonymous
}

// NoteActivity resets the inactivity countdown to its full window. Safe to
// call on every input event; anonymous calls are no-ops.
func (m *Manager) NoteActivity() {
	if !m.activity.Allow() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return
	}
	m.armTimerLocked()
}

// Remaining returns the time left before the session expires, or zero when
// anonymous.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return 0
	}
	remaining := time.Until(m.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HandleAuthInvalid is the HTTP layer's hook for a rejected token on a
// non-exempt endpoint. It forces a logout unless the session is already gone.
func (m *Manager) HandleAuthInvalid() {
	m.forceLogout(ReasonAuthRejected)
}

// Close cancels the inactivity timer on application teardown. The persisted
// token is left in place so the session resumes on the next start.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timerGen++ // a fire already in flight must not log out during teardown
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// expire runs when the inactivity timer elapses. Stopping a fired timer does
// not cancel its callback, so a NoteActivity rearm can race the firing: gen
// identifies the arming that scheduled this callback, and a fire that finds
// the generation advanced is stale and leaves the session alone.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if m.token == "" || gen != m.timerGen {
		m.mu.Unlock()
		return
	}
	m.clearLocked()
	fn := m.onForcedLogout
	m.mu.Unlock()

	m.log.Info().Stringer("reason", ReasonInactivity).Msg("session ended by system")
	if fn != nil {
		fn(ReasonInactivity)
	}
}

func (m *Manager) forceLogout(reason Reason) {
	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return
	}
	m.clearLocked()
	fn := m.onForcedLogout
	m.mu.Unlock()

	m.log.Info().Stringer("reason", reason).Msg("session ended by system")
	if fn != nil {
		fn(reason)
	}
}

// armTimerLocked (re)starts the inactivity countdown. Callers hold mu.
func (m *Manager) armTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timerGen++
	gen := m.timerGen
	m.deadline = time.Now().Add(m.window)
	m.timer = time.AfterFunc(m.window, func() { m.expire(gen) })
}

// clearLocked wipes token state and cancels the timer. Callers hold mu.
func (m *Manager) clearLocked() {
	if err := m.store.ClearToken(); err != nil {
		m.log.Warn().Err(err).Msg("clear stored token failed")
	}
	m.token = ""
	m.deadline = time.Time{}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
