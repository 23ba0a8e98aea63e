// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/rabiehflowers/storefront/internal/domain"
)

// Repository defines the interface for persisting catalog and settings data.
type Repository interface {
	// LoadCatalog retrieves the full catalog in stored order.
	// Returns an empty slice when nothing has been persisted yet.
	LoadCatalog(ctx context.Context) ([]domain.Flower, error)

	// ReplaceCatalog persists the full catalog, replacing whatever was
	// stored before. Record order survives a reload.
	ReplaceCatalog(ctx context.Context, flowers []domain.Flower) error

	// GetSettings retrieves the owner settings record.
	// Returns nil when no settings have been saved yet.
	GetSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings replaces the owner settings record wholesale.
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
