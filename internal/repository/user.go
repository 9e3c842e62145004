package repository

import (
	"context"
	"time"

	"mehnda-chinji/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// LoginSessionRepository tracks issued logins so they can be listed and revoked.
type LoginSessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.LoginSession) error
	Get(ctx context.Context, id string) (*domain.LoginSession, error)
	Touch(ctx context.Context, id string, seenAt time.Time) error
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]domain.LoginSession, error)
	DeleteByUser(ctx context.Context, userID string) error
}
