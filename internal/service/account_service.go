package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/session"
)

var (
	// ErrMissingCredentials is returned before any request when email or password is blank.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Backend is the part of the remote API the account flows use.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) ([]byte, error)
	Signup(ctx context.Context, req api.SignupRequest) ([]byte, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, fields map[string]any) (domain.Profile, error)
	DeleteAccount(ctx context.Context, req api.DeleteAccountRequest) error
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) error
	ActiveSessions(ctx context.Context) ([]domain.LoginSession, error)
	RevokeSession(ctx context.Context, sessionID string) error
	SavePushToken(ctx context.Context, token string) error
}

// AccountService runs the sign-in, sign-up and settings flows against the
// backend and keeps the device session in step.
type AccountService interface {
	Login(ctx context.Context, email, password string, remember bool) error
	Signup(ctx context.Context, req api.SignupRequest) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, fields map[string]any) (domain.Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
	DeleteAccount(ctx context.Context, password string) error
	Sessions(ctx context.Context) ([]domain.LoginSession, error)
	RevokeSession(ctx context.Context, sessionID string) error
	SavePushToken(ctx context.Context, token string) error
}

type accountService struct {
	backend   Backend
	session   *session.Manager
	prefs     *session.Preferences
	directory *directory.Directory
	logger    logrus.FieldLogger
}

// NewAccountService wires the flows. dir may be nil when no directory cache
// is kept.
func NewAccountService(backend Backend, sess *session.Manager, prefs *session.Preferences, dir *directory.Directory, logger logrus.FieldLogger) AccountService {
	if logger == nil {
		logger = logrus.New()
	}
	return &accountService{
		backend:   backend,
		session:   sess,
		prefs:     prefs,
		directory: dir,
		logger:    logger.WithField("component", "account"),
	}
}

func (s *accountService) Login(ctx context.Context, email, password string, remember bool) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}

	payload, err := s.backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := s.session.Login(ctx, payload); err != nil {
		return err
	}
	if remember {
		s.prefs.RememberEmail(ctx, email)
	} else {
		s.prefs.ForgetEmail(ctx)
	}
	return nil
}

func (s *accountService) Signup(ctx context.Context, req api.SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || strings.TrimSpace(req.Password) == "" {
		return ErrMissingCredentials
	}
	payload, err := s.backend.Signup(ctx, req)
	if err != nil {
		return err
	}
	return s.session.Login(ctx, payload)
}

// Logout tells the backend when it can and always clears the device session.
func (s *accountService) Logout(ctx context.Context) error {
	if s.session.IsAuthenticated() {
		if err := s.backend.Logout(ctx); err != nil {
			s.logger.WithError(err).Warn("backend logout failed, clearing local session anyway")
		}
	}
	return s.clearLocal(ctx)
}

// UpdateProfile saves fields on the backend, then merges the stored profile
// (or the submitted fields when the backend does not echo one) into the
// session.
func (s *accountService) UpdateProfile(ctx context.Context, fields map[string]any) (domain.Profile, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	stored, err := s.backend.UpdateProfile(ctx, fields)
	if err != nil {
		return nil, err
	}
	merge := fields
	if stored != nil {
		merge = stored
	}
	if err := s.session.UpdateProfile(ctx, merge); err != nil {
		return nil, err
	}
	return s.session.Profile(), nil
}

func (s *accountService) ChangePassword(ctx context.Context, current, next string) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return s.backend.ChangePassword(ctx, api.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
}

// DeleteAccount removes the account on the backend and then logs out locally.
func (s *accountService) DeleteAccount(ctx context.Context, password string) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if err := s.backend.DeleteAccount(ctx, api.DeleteAccountRequest{Password: password}); err != nil {
		return err
	}
	return s.clearLocal(ctx)
}

// Sessions lists the account's active logins; the one in use is marked current.
func (s *accountService) Sessions(ctx context.Context) ([]domain.LoginSession, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.backend.ActiveSessions(ctx)
}

// RevokeSession ends another login of the account. Revoking the current
// login also logs out on this device.
func (s *accountService) RevokeSession(ctx context.Context, sessionID string) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	sessions, err := s.backend.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	current := false
	for _, ls := range sessions {
		if ls.ID == sessionID && ls.Current {
			current = true
		}
	}
	if err := s.backend.RevokeSession(ctx, sessionID); err != nil {
		return err
	}
	if !current {
		return nil
	}
	s.logger.WithField("session_id", sessionID).Info("current login revoked")
	return s.clearLocal(ctx)
}

func (s *accountService) SavePushToken(ctx context.Context, token string) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return s.backend.SavePushToken(ctx, strings.TrimSpace(token))
}

// clearLocal drops the device session and every cached query.
func (s *accountService) clearLocal(ctx context.Context) error {
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	if s.directory != nil {
		s.directory.Reset(ctx)
	}
	return nil
}
