package catalog

import "fmt"

// Product is a catalog entry as the Catalog/Cart Service returns it. The bot
// only reads it.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Type        string  `json:"tipo,omitempty"`
	Color       string  `json:"color,omitempty"`
	Category    string  `json:"categoria,omitempty"`
	Size        string  `json:"talla,omitempty"`
}

// Label renders the product the way listings show it.
func (p Product) Label() string {
	return fmt.Sprintf("%s (ID: %d)", p.Name, p.ID)
}
