package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

// Preferences holds device conveniences that live beside the session: the
// remembered login email and the colour theme. Like the session, storage
// faults are logged and never returned.
type Preferences struct {
	store  repository.KVStore
	logger logrus.FieldLogger
}

func NewPreferences(store repository.KVStore, logger logrus.FieldLogger) *Preferences {
	if logger == nil {
		logger = logrus.New()
	}
	return &Preferences{store: store, logger: logger.WithField("component", "preferences")}
}

// RememberedEmail returns the email saved by the last "remember me" login.
func (p *Preferences) RememberedEmail(ctx context.Context) string {
	v, _, err := p.store.Get(ctx, RememberEmailKey)
	if err != nil {
		p.fault(err, RememberEmailKey, "read remembered email")
		return ""
	}
	return v
}

func (p *Preferences) RememberEmail(ctx context.Context, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		p.ForgetEmail(ctx)
		return
	}
	if err := p.store.Set(ctx, RememberEmailKey, email); err != nil {
		p.fault(err, RememberEmailKey, "save remembered email")
	}
}

func (p *Preferences) ForgetEmail(ctx context.Context) {
	if err := p.store.Remove(ctx, RememberEmailKey); err != nil {
		p.fault(err, RememberEmailKey, "forget remembered email")
	}
}

// ThemePreference returns the stored preference, defaulting to system.
func (p *Preferences) ThemePreference(ctx context.Context) domain.ThemePreference {
	v, found, err := p.store.Get(ctx, ThemeKey)
	if err != nil {
		p.fault(err, ThemeKey, "read theme preference")
		return domain.ThemeSystem
	}
	pref := domain.ThemePreference(v)
	if !found || !pref.Valid() {
		return domain.ThemeSystem
	}
	return pref
}

func (p *Preferences) SetThemePreference(ctx context.Context, pref domain.ThemePreference) error {
	if !pref.Valid() {
		return fmt.Errorf("unknown theme preference %q", pref)
	}
	if err := p.store.Set(ctx, ThemeKey, string(pref)); err != nil {
		p.fault(err, ThemeKey, "save theme preference")
	}
	return nil
}

// ToggleTheme stores the opposite of the currently resolved theme and
// returns it.
func (p *Preferences) ToggleTheme(ctx context.Context, system domain.ThemePreference) domain.ThemePreference {
	next := domain.ThemeDark
	if ResolveTheme(p.ThemePreference(ctx), system) == domain.ThemeDark {
		next = domain.ThemeLight
	}
	_ = p.SetThemePreference(ctx, next)
	return next
}

// ResolveTheme turns a preference into the scheme to render. "system"
// follows the OS scheme, which falls back to light when unknown.
func ResolveTheme(pref, system domain.ThemePreference) domain.ThemePreference {
	switch pref {
	case domain.ThemeLight, domain.ThemeDark:
		return pref
	}
	if system == domain.ThemeDark {
		return domain.ThemeDark
	}
	return domain.ThemeLight
}

func (p *Preferences) fault(err error, key, msg string) {
	p.logger.WithFields(logrus.Fields{
		"storage_fault": true,
		"key":           key,
	}).WithError(err).Error(msg)
}
