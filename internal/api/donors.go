package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"mehnda-chinji/internal/domain"
)

type DonorRegistration struct {
	BloodGroup       string     `json:"bloodGroup"`
	City             string     `json:"city"`
	Village          string     `json:"village,omitempty"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
	Available        *bool      `json:"available,omitempty"`
}

func (c *Client) RegisterAsDonor(ctx context.Context, reg DonorRegistration) (*domain.Donor, error) {
	var donor domain.Donor
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/register-as-donor", body: reg, auth: true}, &donor); err != nil {
		return nil, err
	}
	return &donor, nil
}

// DonorStatus returns the caller's registration, or nil when not registered.
func (c *Client) DonorStatus(ctx context.Context) (*domain.Donor, error) {
	var donor *domain.Donor
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/v1/get-donor-status", auth: true}, &donor); err != nil {
		return nil, err
	}
	return donor, nil
}

func (c *Client) RemoveAsDonor(ctx context.Context) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/remove-as-donor", body: struct{}{}, auth: true}, nil)
	return err
}

// ToggleDonorAvailability flips the caller between available and busy.
func (c *Client) ToggleDonorAvailability(ctx context.Context) (*domain.Donor, error) {
	var donor domain.Donor
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/manage-donor-status", body: struct{}{}, auth: true}, &donor); err != nil {
		return nil, err
	}
	return &donor, nil
}

func (c *Client) ListDonors(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error) {
	q := url.Values{}
	setIf(q, "bloodGroup", filter.BloodGroup)
	setIf(q, "name", filter.Name)
	setIf(q, "location", filter.Location)

	var donors []domain.Donor
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/v1/get-donors-list", query: q, auth: true}, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
