// Package guard keeps the active route consistent with the session: signed
// out users are held in the (auth) group, signed in users are kept out of it.
package guard

import (
	"sync"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/session"
)

// Entry routes of the two flows.
const (
	AuthEntry = domain.RouteLogin
	AppEntry  = domain.RouteTabs
)

// Navigator performs redirects decided by the guard.
type Navigator interface {
	Replace(route domain.Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(domain.Route)

func (f NavigatorFunc) Replace(route domain.Route) { f(route) }

// StateOf derives the guard state from a session snapshot.
func StateOf(snap domain.SessionSnapshot) domain.AuthState {
	switch {
	case snap.Loading:
		return domain.AuthStateUndetermined
	case snap.Authenticated():
		return domain.AuthStateAuthenticated
	default:
		return domain.AuthStateUnauthenticated
	}
}

// Decide returns where a user in state must be sent from route, and false
// when route is already allowed. Nothing is decided while undetermined.
func Decide(state domain.AuthState, route domain.Route) (domain.Route, bool) {
	inAuthGroup := route.InAuthGroup()
	switch state {
	case domain.AuthStateUnauthenticated:
		if !inAuthGroup {
			return AuthEntry, true
		}
	case domain.AuthStateAuthenticated:
		if inAuthGroup {
			return AppEntry, true
		}
	}
	return "", false
}

// SplashTarget is where the splash screen hands over once the session is known.
func SplashTarget(state domain.AuthState) (domain.Route, bool) {
	switch state {
	case domain.AuthStateAuthenticated:
		return domain.RouteTabs, true
	case domain.AuthStateUnauthenticated:
		return domain.RouteWelcome, true
	}
	return "", false
}

// Guard re-checks the active route on every session event and every route
// change.
type Guard struct {
	nav    Navigator
	logger logrus.FieldLogger

	mu    sync.Mutex
	state domain.AuthState
	route domain.Route
}

func New(nav Navigator, initial domain.Route, logger logrus.FieldLogger) *Guard {
	if logger == nil {
		logger = logrus.New()
	}
	return &Guard{
		nav:    nav,
		logger: logger.WithField("component", "guard"),
		state:  domain.AuthStateUndetermined,
		route:  initial,
	}
}

// Attach subscribes the guard to m and evaluates the current state at once.
// The returned function detaches it.
func (g *Guard) Attach(m *session.Manager) func() {
	cancel := m.Subscribe(func(ev session.Event) {
		g.OnSession(ev.Snapshot)
	})
	g.OnSession(m.Snapshot())
	return cancel
}

// OnSession records the session state and re-evaluates the route.
func (g *Guard) OnSession(snap domain.SessionSnapshot) {
	next := StateOf(snap)

	g.mu.Lock()
	if g.state != next {
		g.logger.WithFields(logrus.Fields{"from": g.state, "to": next}).Debug("auth state changed")
	}
	g.state = next
	g.mu.Unlock()

	g.evaluate()
}

// SetRoute records a navigation and re-evaluates it.
func (g *Guard) SetRoute(route domain.Route) {
	g.mu.Lock()
	g.route = route
	g.mu.Unlock()

	g.evaluate()
}

func (g *Guard) evaluate() {
	g.mu.Lock()
	target, redirect := Decide(g.state, g.route)
	from := g.route
	if redirect {
		g.route = target
	}
	g.mu.Unlock()

	if !redirect {
		return
	}
	g.logger.WithFields(logrus.Fields{"from": from, "to": target}).Info("redirect")
	if g.nav != nil {
		g.nav.Replace(target)
	}
}

func (g *Guard) State() domain.AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) Route() domain.Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.route
}
