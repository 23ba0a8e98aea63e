// Package domain contains core domain types for the storefront.
package domain

// Flower represents a single catalog record shown in the gallery.
// ImageURL is either a remote URL or a self-contained data: URL.
type Flower struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}
