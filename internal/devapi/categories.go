package devapi

import "mehnda-chinji/internal/domain"

var categories = []domain.Category{
	{ID: "svc-mehndi", Name: "Mehndi Artist", Type: "SERVICES"},
	{ID: "svc-tailor", Name: "Tailor", Type: "SERVICES"},
	{ID: "svc-electrician", Name: "Electrician", Type: "SERVICES"},
	{ID: "svc-plumber", Name: "Plumber", Type: "SERVICES"},
	{ID: "svc-tutor", Name: "Tutor", Type: "SERVICES"},
	{ID: "shop-grocery", Name: "Grocery", Type: "SHOPS"},
	{ID: "shop-pharmacy", Name: "Pharmacy", Type: "SHOPS"},
	{ID: "shop-bakery", Name: "Bakery", Type: "SHOPS"},
}

func categoriesOf(kind string) []domain.Category {
	if kind == "" {
		kind = "SERVICES"
	}
	out := []domain.Category{}
	for _, c := range categories {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func findCategory(id string) *domain.Category {
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i]
		}
	}
	return nil
}
