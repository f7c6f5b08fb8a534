package domain

// Product is one catalog row. The basket engine only ever reads it.
type Product struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
	Color       string  `json:"color,omitempty" yaml:"color"` // empty when the row has no color
	Category    string  `json:"category,omitempty" yaml:"category"`
	ImageURL    string  `json:"image_url,omitempty" yaml:"image_url"`
}

// InStock reports whether at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}
