package devapi

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
	"mehnda-chinji/internal/repository/sqlite"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when signing up with a registered email.
	ErrUserAlreadyExists = errors.New("an account with this email already exists")
	// ErrWrongPassword is returned when a signed-in user confirms with the wrong password.
	ErrWrongPassword = errors.New("password is incorrect")
	// ErrSessionRevoked is returned for tokens whose login was ended.
	ErrSessionRevoked = errors.New("session has been logged out")
)

// ValidationError is a rejected request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SignupInput is what a new account is created from.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Village  string `json:"village"`
}

// Principal is the caller behind a verified token.
type Principal struct {
	User      *domain.User
	SessionID string
}

// AccountService describes account lifecycle operations.
type AccountService interface {
	Signup(ctx context.Context, in SignupInput, userAgent string) (*domain.User, string, error)
	Login(ctx context.Context, email, password, userAgent string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, p *Principal) error
	UpdateProfile(ctx context.Context, p *Principal, fields map[string]any) (*domain.User, error)
	ChangePassword(ctx context.Context, p *Principal, current, next string) error
	DeleteAccount(ctx context.Context, p *Principal, password string) error
	Sessions(ctx context.Context, p *Principal) ([]domain.LoginSession, error)
	RevokeSession(ctx context.Context, p *Principal, sessionID string) error
	SavePushToken(ctx context.Context, p *Principal, token string) error
}

type accountService struct {
	users     repository.UserRepository
	sessions  repository.LoginSessionRepository
	directory DirectoryService
	tokens    *TokenIssuer
	now       func() time.Time
}

func NewAccountService(users repository.UserRepository, sessions repository.LoginSessionRepository, directory DirectoryService, tokens *TokenIssuer) AccountService {
	return &accountService{
		users:     users,
		sessions:  sessions,
		directory: directory,
		tokens:    tokens,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Signup(ctx context.Context, in SignupInput, userAgent string) (*domain.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Password = strings.TrimSpace(in.Password)

	if in.Name == "" {
		return nil, "", invalid("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return nil, "", invalid("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		Village:      strings.TrimSpace(in.Village),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sqlite.ErrUserExists) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", err
	}

	token, err := s.startSession(ctx, user.ID, userAgent)
	if err != nil {
		return nil, "", err
	}
	return sanitizeUser(user), token, nil
}

func (s *accountService) Login(ctx context.Context, email, password, userAgent string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, user.ID, userAgent)
	if err != nil {
		return nil, "", err
	}
	return sanitizeUser(user), token, nil
}

func (s *accountService) startSession(ctx context.Context, userID, userAgent string) (string, error) {
	session := &domain.LoginSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return s.tokens.Issue(userID, session.ID)
}

// Authenticate verifies the token and that its login session is still open.
func (s *accountService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if !session.Active() || session.UserID != claims.UID {
		return nil, ErrSessionRevoked
	}
	user, err := s.users.GetByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if err := s.sessions.Touch(ctx, session.ID, s.now()); err != nil {
		return nil, err
	}
	return &Principal{User: user, SessionID: session.ID}, nil
}

func (s *accountService) Logout(ctx context.Context, p *Principal) error {
	return s.sessions.Revoke(ctx, p.SessionID, s.now())
}

// UpdateProfile applies the editable fields present in fields.
func (s *accountService) UpdateProfile(ctx context.Context, p *Principal, fields map[string]any) (*domain.User, error) {
	user := *p.User
	for key, value := range fields {
		str, ok := value.(string)
		if !ok {
			return nil, invalid("%s must be a string", key)
		}
		str = strings.TrimSpace(str)
		switch key {
		case "name":
			if str == "" {
				return nil, invalid("name is required")
			}
			user.Name = str
		case "phone":
			user.Phone = str
		case "city":
			user.City = str
		case "village":
			user.Village = str
		default:
			return nil, invalid("%s cannot be changed", key)
		}
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return nil, err
	}
	return sanitizeUser(&user), nil
}

func (s *accountService) ChangePassword(ctx context.Context, p *Principal, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(p.User.PasswordHash), []byte(strings.TrimSpace(current))); err != nil {
		return ErrWrongPassword
	}
	next = strings.TrimSpace(next)
	if len(next) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := *p.User
	user.PasswordHash = string(hash)
	return s.users.Update(ctx, &user)
}

// DeleteAccount removes the user together with their logins, donor
// registration and businesses.
func (s *accountService) DeleteAccount(ctx context.Context, p *Principal, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(p.User.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return ErrWrongPassword
	}
	if err := s.directory.RemoveOwner(ctx, p.User.ID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, p.User.ID); err != nil {
		return err
	}
	return s.users.Delete(ctx, p.User.ID)
}

// Sessions lists the user's open logins, flagging the caller's.
func (s *accountService) Sessions(ctx context.Context, p *Principal) ([]domain.LoginSession, error) {
	all, err := s.sessions.ListByUser(ctx, p.User.ID)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, ls := range all {
		if !ls.Active() {
			continue
		}
		ls.Current = ls.ID == p.SessionID
		active = append(active, ls)
	}
	return active, nil
}

func (s *accountService) RevokeSession(ctx context.Context, p *Principal, sessionID string) error {
	target, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if target.UserID != p.User.ID {
		return repository.ErrNotFound
	}
	return s.sessions.Revoke(ctx, sessionID, s.now())
}

func (s *accountService) SavePushToken(ctx context.Context, p *Principal, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("pushToken is required")
	}
	user := *p.User
	user.PushToken = token
	return s.users.Update(ctx, &user)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	clean.PushToken = ""
	return &clean
}
