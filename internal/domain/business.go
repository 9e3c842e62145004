package domain

import "time"

// BusinessPageSize is the number of businesses returned per list page.
const BusinessPageSize = 20

// Business is a directory listing owned by a user.
type Business struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Searchable  bool      `json:"searchable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Category groups businesses by kind.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Pagination describes one page of a paged list.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}

// BusinessFilter narrows a directory listing.
type BusinessFilter struct {
	Search     string `json:"search,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

// BusinessPage is one page of the directory.
type BusinessPage struct {
	Data       []Business  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
