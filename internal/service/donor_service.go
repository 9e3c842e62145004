package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/session"
)

// DonorBackend is the blood donation part of the remote API.
type DonorBackend interface {
	RegisterAsDonor(ctx context.Context, reg api.DonorRegistration) (*domain.Donor, error)
	DonorStatus(ctx context.Context) (*domain.Donor, error)
	RemoveAsDonor(ctx context.Context) error
	ToggleDonorAvailability(ctx context.Context) (*domain.Donor, error)
	ListDonors(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error)
}

// DonorService runs the blood donation screens for the logged in user.
type DonorService interface {
	Register(ctx context.Context, reg api.DonorRegistration) (*domain.Donor, error)
	// Status returns nil when the user is not registered.
	Status(ctx context.Context) (*domain.Donor, error)
	Remove(ctx context.Context) error
	ToggleAvailability(ctx context.Context) (*domain.Donor, error)
	List(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error)
}

type donorService struct {
	backend DonorBackend
	session *session.Manager
	logger  logrus.FieldLogger
}

func NewDonorService(backend DonorBackend, sess *session.Manager, logger logrus.FieldLogger) DonorService {
	if logger == nil {
		logger = logrus.New()
	}
	return &donorService{
		backend: backend,
		session: sess,
		logger:  logger.WithField("component", "donor"),
	}
}

func (s *donorService) Register(ctx context.Context, reg api.DonorRegistration) (*domain.Donor, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	donor, err := s.backend.RegisterAsDonor(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("blood_group", donor.BloodGroup).Info("registered as donor")
	return donor, nil
}

func (s *donorService) Status(ctx context.Context) (*domain.Donor, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.backend.DonorStatus(ctx)
}

func (s *donorService) Remove(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if err := s.backend.RemoveAsDonor(ctx); err != nil {
		return err
	}
	s.logger.Info("removed from donor list")
	return nil
}

func (s *donorService) ToggleAvailability(ctx context.Context) (*domain.Donor, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.backend.ToggleDonorAvailability(ctx)
}

func (s *donorService) List(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	donors, err := s.backend.ListDonors(ctx, filter)
	if err != nil {
		return nil, err
	}
	if donors == nil {
		donors = []domain.Donor{}
	}
	return donors, nil
}
