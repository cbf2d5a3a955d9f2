package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CategoryAll   = "all"
	CategoryOther = "other"
)

// Product is a catalog entry as served by the backend. Price may arrive as
// a JSON number or a numeric string.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

func (p Product) CategoryOrOther() string {
	if p.Category == "" {
		return CategoryOther
	}
	return p.Category
}

// Categories lists CategoryAll followed by each distinct category in the
// order it first appears.
func Categories(products []Product) []string {
	categories := []string{CategoryAll}
	seen := make(map[string]struct{})
	for _, p := range products {
		c := p.CategoryOrOther()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	return categories
}

// FilterProducts keeps products in category (CategoryAll or empty matches
// everything) whose name or description contains query, ignoring case.
func FilterProducts(products []Product, category, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != CategoryAll && p.CategoryOrOther() != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// FindProduct returns the product with id, if present.
func FindProduct(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
