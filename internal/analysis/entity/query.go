package entity

import "strings"

// BuildQuery assembles the catalog search string: type, then color, then
// category only when no type is present. An empty result means there is not
// enough information to search.
func BuildQuery(e Entities) string {
	parts := make([]string, 0, 3)
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if e.Color != "" {
		parts = append(parts, e.Color)
	}
	if e.Category != "" && e.Type == "" {
		parts = append(parts, e.Category)
	}
	return strings.Join(parts, " ")
}
