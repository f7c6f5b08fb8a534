package catalog

import (
	"database/sql"
	"strings"

	"github.com/virtualbasket/backend/internal/domain"
)

// productRow mirrors one row of the catalog query. Nullable columns use the
// sql.Null* types so a NULL color or image never fails the scan.
type productRow struct {
	ID          int64
	Name        string
	Description sql.NullString
	Price       float64
	Stock       int
	Color       sql.NullString
	Category    sql.NullString
	ImageURL    sql.NullString
}

// scanTargets returns the destinations in productQuery column order
func (r *productRow) scanTargets() []any {
	return []any{
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Price,
		&r.Stock,
		&r.Color,
		&r.Category,
		&r.ImageURL,
	}
}

// mapToProduct converts a catalog row to the domain Product model
func mapToProduct(r productRow) domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        strings.TrimSpace(r.Name),
		Description: nullString(r.Description),
		Price:       r.Price,
		Stock:       r.Stock,
		Color:       nullString(r.Color),
		Category:    nullString(r.Category),
		ImageURL:    nullString(r.ImageURL),
	}
}

// normalizeProducts trims names and drops rows that can never be offered
func normalizeProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		p.Color = strings.TrimSpace(p.Color)
		if p.Name == "" || p.Price < 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}
