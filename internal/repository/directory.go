package repository

import (
	"context"

	"mehnda-chinji/internal/domain"
)

// BusinessRepository exposes persistence operations for directory listings.
type BusinessRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, business *domain.Business) error
	Get(ctx context.Context, id string) (*domain.Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Business, error)
	// Search returns searchable businesses matching filter, page is 1-based.
	Search(ctx context.Context, filter domain.BusinessFilter, page, limit int) ([]domain.Business, int, error)
	SetSearchable(ctx context.Context, id string, searchable bool) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// DonorRepository manages blood donor registrations.
type DonorRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, donor *domain.Donor) error
	GetByUser(ctx context.Context, userID string) (*domain.Donor, error)
	SetAvailable(ctx context.Context, userID string, available bool) error
	DeleteByUser(ctx context.Context, userID string) error
	Search(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error)
}
