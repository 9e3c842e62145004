package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"mehnda-chinji/internal/domain"
)

// DefaultCategoryType is the category list shown by the business form.
const DefaultCategoryType = "SERVICES"

type BusinessRegistration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"categoryId"`
	City        string `json:"city"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type businessRef struct {
	BusinessID string `json:"businessId"`
}

type businessSearch struct {
	BusinessID string `json:"businessId"`
	Search     bool   `json:"search"`
}

func (c *Client) RegisterBusiness(ctx context.Context, reg BusinessRegistration) (*domain.Business, error) {
	var b domain.Business
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/register-business", body: reg, auth: true}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// BusinessStatus lists the caller's own businesses.
func (c *Client) BusinessStatus(ctx context.Context) ([]domain.Business, error) {
	var out []domain.Business
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/v1/get-business-status", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context, kind string) ([]domain.Category, error) {
	if kind == "" {
		kind = DefaultCategoryType
	}
	var out []domain.Category
	q := url.Values{"type": []string{kind}}
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/category/list", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBusinesses fetches one page of the directory; page is 1-based.
func (c *Client) ListBusinesses(ctx context.Context, filter domain.BusinessFilter, page int) (domain.BusinessPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"currentPage": []string{strconv.Itoa(page)}}
	setIf(q, "search", filter.Search)
	setIf(q, "categoryId", filter.CategoryID)

	var items []domain.Business
	env, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/v1/get-businesses-list", query: q, auth: true}, &items)
	if err != nil {
		return domain.BusinessPage{}, err
	}
	return domain.BusinessPage{Data: items, Pagination: env.Pagination}, nil
}

func (c *Client) DeleteBusiness(ctx context.Context, businessID string) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/remove-business", body: businessRef{BusinessID: businessID}, auth: true}, nil)
	return err
}

// SetBusinessSearchable shows or hides a business in directory searches.
func (c *Client) SetBusinessSearchable(ctx context.Context, businessID string, search bool) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/manage-business-search", body: businessSearch{BusinessID: businessID, Search: search}, auth: true}, nil)
	return err
}
