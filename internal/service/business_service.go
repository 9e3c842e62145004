package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/session"
)

// BusinessBackend is the part of the remote API that manages listings.
type BusinessBackend interface {
	RegisterBusiness(ctx context.Context, reg api.BusinessRegistration) (*domain.Business, error)
	BusinessStatus(ctx context.Context) ([]domain.Business, error)
	Categories(ctx context.Context, kind string) ([]domain.Category, error)
	DeleteBusiness(ctx context.Context, businessID string) error
	SetBusinessSearchable(ctx context.Context, businessID string, search bool) error
}

// BusinessService manages the caller's listings. Every successful change
// marks cached business queries stale.
type BusinessService interface {
	Register(ctx context.Context, reg api.BusinessRegistration) (*domain.Business, error)
	Mine(ctx context.Context) ([]domain.Business, error)
	Categories(ctx context.Context, kind string) ([]domain.Category, error)
	Delete(ctx context.Context, businessID string) error
	SetSearchable(ctx context.Context, businessID string, search bool) error
}

type businessService struct {
	backend   BusinessBackend
	session   *session.Manager
	directory *directory.Directory
	logger    logrus.FieldLogger
}

// NewBusinessService wires the listing flows. dir may be nil when no
// directory cache is kept.
func NewBusinessService(backend BusinessBackend, sess *session.Manager, dir *directory.Directory, logger logrus.FieldLogger) BusinessService {
	if logger == nil {
		logger = logrus.New()
	}
	return &businessService{
		backend:   backend,
		session:   sess,
		directory: dir,
		logger:    logger.WithField("component", "business"),
	}
}

func (s *businessService) Register(ctx context.Context, reg api.BusinessRegistration) (*domain.Business, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	b, err := s.backend.RegisterBusiness(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("business_id", b.ID).Info("business registered")
	s.invalidate(ctx)
	return b, nil
}

// Mine returns the caller's own listings, searchable or not.
func (s *businessService) Mine(ctx context.Context) ([]domain.Business, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	if s.directory == nil {
		return s.backend.BusinessStatus(ctx)
	}
	return s.directory.OwnBusinesses(ctx, s.session.Profile().ID())
}

func (s *businessService) Categories(ctx context.Context, kind string) ([]domain.Category, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.backend.Categories(ctx, kind)
}

func (s *businessService) Delete(ctx context.Context, businessID string) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if err := s.backend.DeleteBusiness(ctx, businessID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *businessService) SetSearchable(ctx context.Context, businessID string, search bool) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if err := s.backend.SetBusinessSearchable(ctx, businessID, search); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *businessService) invalidate(ctx context.Context) {
	if s.directory == nil {
		return
	}
	n := s.directory.InvalidateBusinesses(ctx)
	s.logger.WithField("entries", n).Debug("business queries invalidated")
}
