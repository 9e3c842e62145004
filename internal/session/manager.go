package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

// Keys used in the device key-value store.
const (
	SessionKey       = "userData"
	RememberEmailKey = "remember_email"
	ThemeKey         = "userTheme"
)

// ErrBusy is returned when a session mutation is attempted while another one
// is still running.
var ErrBusy = errors.New("session operation already in progress")

// EventKind says what changed the session.
type EventKind string

const (
	EventRestored       EventKind = "restored"
	EventLoggedIn       EventKind = "logged_in"
	EventLoggedOut      EventKind = "logged_out"
	EventProfileUpdated EventKind = "profile_updated"
)

// Event is delivered to subscribers after each state change.
type Event struct {
	Kind     EventKind
	Snapshot domain.SessionSnapshot
}

// Listener receives session events. Listeners run synchronously on the
// goroutine that changed the session and must not start another session
// mutation from inside the callback.
type Listener func(Event)

// Config configures a Manager.
type Config struct {
	Store  repository.KVStore
	Logger logrus.FieldLogger
}

// Manager is the single owner of the device session.
type Manager struct {
	store  repository.KVStore
	logger logrus.FieldLogger

	// op serialises mutations; Initialize waits for it, the others fail fast.
	op sync.Mutex

	mu      sync.RWMutex
	current domain.Session
	expiry  *time.Time
	loading bool

	faults atomic.Int64

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Manager{
		store:   cfg.Store,
		logger:  cfg.Logger.WithField("component", "session"),
		loading: true,
		subs:    make(map[int]Listener),
	}
}

// Initialize restores the persisted session. Missing, unreadable or
// malformed records leave the device logged out. It never fails and always
// clears the loading flag.
func (m *Manager) Initialize(ctx context.Context) {
	m.op.Lock()
	defer m.op.Unlock()

	restored := m.load(ctx)

	m.mu.Lock()
	m.current = restored
	m.expiry = TokenExpiry(restored.Token)
	m.loading = false
	m.mu.Unlock()

	if restored.Empty() {
		m.logger.Debug("no stored session")
	} else {
		m.logger.WithField("user_id", restored.Profile.ID()).Info("session restored")
	}
	m.emit(EventRestored)
}

func (m *Manager) load(ctx context.Context) domain.Session {
	raw, found, err := m.store.Get(ctx, SessionKey)
	if err != nil {
		m.storageFault(err, "read stored session")
		return domain.Session{}
	}
	if !found || raw == "" {
		return domain.Session{}
	}

	var record domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		m.storageFault(err, "stored session is not valid JSON")
		return domain.Session{}
	}
	if !record.Valid() {
		m.storageFault(errors.New("user or token missing"), "stored session is incomplete")
		return domain.Session{}
	}
	return record.Session()
}

// Login installs the session carried by a login or signup response,
// persists it and tells subscribers to enter the authenticated area.
// A payload without a profile or token returns ErrMalformedLoginPayload and
// changes nothing.
func (m *Manager) Login(ctx context.Context, payload []byte) error {
	if !m.op.TryLock() {
		return ErrBusy
	}
	defer m.op.Unlock()

	next, err := ResolveLogin(payload)
	if err != nil {
		m.logger.WithError(err).Error("invalid login data")
		return err
	}

	m.mu.Lock()
	m.current = next
	m.expiry = TokenExpiry(next.Token)
	m.mu.Unlock()

	m.persist(ctx, next)
	m.logger.WithField("user_id", next.Profile.ID()).Info("logged in")
	m.emit(EventLoggedIn)
	return nil
}

// Logout clears the session and its stored record and tells subscribers to
// return to the sign-in entry. Without a session it only drops a stale record.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.op.TryLock() {
		return ErrBusy
	}
	defer m.op.Unlock()

	m.mu.Lock()
	wasActive := !m.current.Empty()
	m.current = domain.Session{}
	m.expiry = nil
	m.mu.Unlock()

	if err := m.store.Remove(ctx, SessionKey); err != nil {
		m.storageFault(err, "remove stored session")
	}
	if !wasActive {
		return nil
	}

	m.logger.Info("logged out")
	m.emit(EventLoggedOut)
	return nil
}

// UpdateProfile shallow-merges fields into the profile and persists the
// result. The token is unchanged. Without a session it does nothing.
func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]any) error {
	if !m.op.TryLock() {
		return ErrBusy
	}
	defer m.op.Unlock()

	m.mu.Lock()
	if m.current.Empty() {
		m.mu.Unlock()
		return nil
	}
	m.current = domain.Session{
		Token:   m.current.Token,
		Profile: m.current.Profile.Merge(fields),
	}
	next := m.current
	m.mu.Unlock()

	m.persist(ctx, next)
	m.emit(EventProfileUpdated)
	return nil
}

func (m *Manager) persist(ctx context.Context, s domain.Session) {
	raw, err := json.Marshal(domain.RecordOf(s))
	if err != nil {
		m.storageFault(err, "encode session")
		return
	}
	if err := m.store.Set(ctx, SessionKey, string(raw)); err != nil {
		m.storageFault(err, "write stored session")
	}
}

func (m *Manager) storageFault(err error, msg string) {
	m.faults.Add(1)
	m.logger.WithFields(logrus.Fields{
		"storage_fault": true,
		"key":           SessionKey,
	}).WithError(err).Error(msg)
}

// IsAuthenticated reports whether a user is logged in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.current.Empty()
}

// Loading reports whether Initialize has not finished yet.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Profile returns a copy of the user profile, or nil when logged out.
func (m *Manager) Profile() domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Profile.Clone()
}

// Snapshot returns a copy of the full session state.
func (m *Manager) Snapshot() domain.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Session: domain.Session{Token: m.current.Token, Profile: m.current.Profile.Clone()},
		Loading: m.loading,
	}
	if m.expiry != nil {
		t := *m.expiry
		snap.TokenExpiry = &t
	}
	return snap
}

// StorageFaults returns how many store operations have failed so far.
func (m *Manager) StorageFaults() int64 {
	return m.faults.Load()
}

// Subscribe registers l for session events and returns a function that
// removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = l
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}
}

func (m *Manager) emit(kind EventKind) {
	ev := Event{Kind: kind, Snapshot: m.Snapshot()}

	m.subsMu.Lock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.subs[id])
	}
	m.subsMu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
