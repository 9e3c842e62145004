package devapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

// ErrForbidden is returned when acting on another user's business.
var ErrForbidden = errors.New("not allowed")

type DonorInput struct {
	BloodGroup       string     `json:"bloodGroup"`
	City             string     `json:"city"`
	Village          string     `json:"village"`
	LastDonationDate *time.Time `json:"lastDonationDate"`
	Available        *bool      `json:"available"`
}

type BusinessInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

// DirectoryService covers blood donors and the business directory.
type DirectoryService interface {
	RegisterDonor(ctx context.Context, user *domain.User, in DonorInput) (*domain.Donor, error)
	DonorStatus(ctx context.Context, userID string) (*domain.Donor, error)
	RemoveDonor(ctx context.Context, userID string) error
	ToggleDonor(ctx context.Context, userID string) (*domain.Donor, error)
	ListDonors(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error)

	RegisterBusiness(ctx context.Context, user *domain.User, in BusinessInput) (*domain.Business, error)
	BusinessStatus(ctx context.Context, userID string) ([]domain.Business, error)
	Categories(kind string) []domain.Category
	ListBusinesses(ctx context.Context, filter domain.BusinessFilter, page int) (domain.BusinessPage, error)
	DeleteBusiness(ctx context.Context, userID, businessID string) error
	SetBusinessSearchable(ctx context.Context, userID, businessID string, searchable bool) error

	// RemoveOwner drops everything a user registered.
	RemoveOwner(ctx context.Context, userID string) error
}

type directoryService struct {
	donors     repository.DonorRepository
	businesses repository.BusinessRepository
}

func NewDirectoryService(donors repository.DonorRepository, businesses repository.BusinessRepository) DirectoryService {
	return &directoryService{donors: donors, businesses: businesses}
}

func (s *directoryService) RegisterDonor(ctx context.Context, user *domain.User, in DonorInput) (*domain.Donor, error) {
	group := strings.ToUpper(strings.TrimSpace(in.BloodGroup))
	if !domain.ValidBloodGroup(group) {
		return nil, invalid("unknown blood group %q", in.BloodGroup)
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		city = user.City
	}
	if city == "" {
		return nil, invalid("city is required")
	}
	village := strings.TrimSpace(in.Village)
	if village == "" {
		village = user.Village
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}

	donor := &domain.Donor{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		Name:             user.Name,
		Phone:            user.Phone,
		BloodGroup:       group,
		City:             city,
		Village:          village,
		Available:        available,
		LastDonationDate: in.LastDonationDate,
	}
	if existing, err := s.donors.GetByUser(ctx, user.ID); err == nil {
		donor.ID = existing.ID
		donor.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := s.donors.Upsert(ctx, donor); err != nil {
		return nil, err
	}
	return donor, nil
}

// DonorStatus returns nil without error when the user is not a donor.
func (s *directoryService) DonorStatus(ctx context.Context, userID string) (*domain.Donor, error) {
	donor, err := s.donors.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return donor, err
}

func (s *directoryService) RemoveDonor(ctx context.Context, userID string) error {
	return s.donors.DeleteByUser(ctx, userID)
}

func (s *directoryService) ToggleDonor(ctx context.Context, userID string) (*domain.Donor, error) {
	donor, err := s.donors.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.donors.SetAvailable(ctx, userID, !donor.Available); err != nil {
		return nil, err
	}
	return s.donors.GetByUser(ctx, userID)
}

func (s *directoryService) ListDonors(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error) {
	filter.BloodGroup = strings.ToUpper(strings.TrimSpace(filter.BloodGroup))
	if filter.BloodGroup != "" && !domain.ValidBloodGroup(filter.BloodGroup) {
		return nil, invalid("unknown blood group %q", filter.BloodGroup)
	}
	donors, err := s.donors.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if donors == nil {
		donors = []domain.Donor{}
	}
	return donors, nil
}

func (s *directoryService) RegisterBusiness(ctx context.Context, user *domain.User, in BusinessInput) (*domain.Business, error) {
	b := &domain.Business{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  strings.TrimSpace(in.CategoryID),
		City:        strings.TrimSpace(in.City),
		Address:     strings.TrimSpace(in.Address),
		Phone:       strings.TrimSpace(in.Phone),
		Searchable:  true,
	}
	if b.Name == "" {
		return nil, invalid("business name is required")
	}
	if findCategory(b.CategoryID) == nil {
		return nil, invalid("unknown category %q", in.CategoryID)
	}
	if b.City == "" {
		b.City = user.City
	}
	if b.Phone == "" {
		b.Phone = user.Phone
	}
	if err := s.businesses.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *directoryService) BusinessStatus(ctx context.Context, userID string) ([]domain.Business, error) {
	list, err := s.businesses.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Business{}
	}
	return list, nil
}

func (s *directoryService) Categories(kind string) []domain.Category {
	return categoriesOf(kind)
}

// ListBusinesses returns one page of searchable businesses.
func (s *directoryService) ListBusinesses(ctx context.Context, filter domain.BusinessFilter, page int) (domain.BusinessPage, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.businesses.Search(ctx, filter, page, domain.BusinessPageSize)
	if err != nil {
		return domain.BusinessPage{}, err
	}
	if items == nil {
		items = []domain.Business{}
	}
	pages := (total + domain.BusinessPageSize - 1) / domain.BusinessPageSize
	return domain.BusinessPage{
		Data: items,
		Pagination: &domain.Pagination{
			CurrentPage: page,
			TotalPages:  pages,
			TotalItems:  total,
			Limit:       domain.BusinessPageSize,
		},
	}, nil
}

func (s *directoryService) owned(ctx context.Context, userID, businessID string) error {
	b, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return err
	}
	if b.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *directoryService) DeleteBusiness(ctx context.Context, userID, businessID string) error {
	if err := s.owned(ctx, userID, businessID); err != nil {
		return err
	}
	return s.businesses.Delete(ctx, businessID)
}

func (s *directoryService) SetBusinessSearchable(ctx context.Context, userID, businessID string, searchable bool) error {
	if err := s.owned(ctx, userID, businessID); err != nil {
		return err
	}
	return s.businesses.SetSearchable(ctx, businessID, searchable)
}

func (s *directoryService) RemoveOwner(ctx context.Context, userID string) error {
	if err := s.donors.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	return s.businesses.DeleteByOwner(ctx, userID)
}
