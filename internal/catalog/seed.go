package catalog

import "github.com/rabiehflowers/storefront/internal/domain"

// Seed returns the built-in catalog used when nothing has been persisted yet.
// It is not written back to storage until the first mutation.
func Seed() []domain.Flower {
	return []domain.Flower{
		{
			ID:          "1",
			Name:        "Classic Red Roses",
			Description: "Deep red roses, perfect for expressing love and passion.",
			Category:    "Roses",
			ImageURL:    "https://images.unsplash.com/photo-1548586196-aa5803b77379?q=80&w=800&auto=format&fit=crop",
		},
		{
			ID:          "2",
			Name:        "Lush Green Fern",
			Description: "A healthy, vibrant fern plant that brings nature indoors.",
			Category:    "Plants",
			ImageURL:    "https://images.unsplash.com/photo-1459156212016-c812468e2115?q=80&w=800&auto=format&fit=crop",
		},
		{
			ID:          "3",
			Name:        "Pink Rose Bouquet",
			Description: "Soft pink roses arranged elegantly for special occasions.",
			Category:    "Roses",
			ImageURL:    "https://images.unsplash.com/photo-1494959764136-6be9eb3c261e?q=80&w=800&auto=format&fit=crop",
		},
		{
			ID:          "4",
			Name:        "Snake Plant",
			Description: "Easy to care for indoor plant, adds a modern touch.",
			Category:    "Plants",
			ImageURL:    "https://images.unsplash.com/photo-1599598425947-735dbe12a2a4?q=80&w=800&auto=format&fit=crop",
		},
		{
			ID:          "5",
			Name:        "Luxury White Roses",
			Description: "Pristine white roses symbolizing purity and innocence.",
			Category:    "Roses",
			ImageURL:    "https://images.unsplash.com/photo-1533616688419-b7a58556e124?q=80&w=800&auto=format&fit=crop",
		},
		{
			ID:          "6",
			Name:        "Monstera Deliciosa",
			Description: "The trendy Swiss Cheese plant, a perfect statement piece.",
			Category:    "Plants",
			ImageURL:    "https://images.unsplash.com/photo-1614594975525-e45190c55d0b?q=80&w=800&auto=format&fit=crop",
		},
	}
}
