// Package catalog implements the flower catalog with write-through persistence.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabiehflowers/storefront/internal/domain"
	"github.com/rabiehflowers/storefront/internal/store"
)

// ErrValidation is returned when a record is missing a required field.
var ErrValidation = errors.New("validation failed")

// persistTimeout bounds the background write that follows each mutation.
const persistTimeout = 10 * time.Second

// Store owns the ordered catalog list. All mutations go through Save and
// Delete, which write the full list back to the repository. Persistence
// failures are logged and never surfaced to the caller; the in-memory list
// remains the source of truth for the running process.
type Store struct {
	repo store.Repository

	mu      sync.Mutex
	flowers []domain.Flower
}

// NewStore loads the catalog from the repository. When nothing is stored or
// the load fails, it falls back to the built-in seed without persisting it.
func NewStore(ctx context.Context, repo store.Repository) *Store {
	s := &Store{repo: repo}

	flowers, err := repo.LoadCatalog(ctx)
	switch {
	case err != nil:
		slog.Warn("Failed to load catalog, using seed data", "error", err)
		s.flowers = Seed()
	case len(flowers) == 0:
		s.flowers = Seed()
	default:
		s.flowers = flowers
	}

	slog.Info("Catalog loaded", "flowers", len(s.flowers))
	return s
}

// List returns a copy of the current catalog in insertion order.
func (s *Store) List() []domain.Flower {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Flower, len(s.flowers))
	copy(out, s.flowers)
	return out
}

// Get returns the record with the given identifier, or false if absent.
func (s *Store) Get(id string) (domain.Flower, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.flowers {
		if f.ID == id {
			return f, true
		}
	}
	return domain.Flower{}, false
}

// Save creates or updates a record. A record whose ID matches an existing one
// replaces it in place, preserving its position; otherwise the record is
// appended, with a fresh ID assigned when the caller supplied none.
func (s *Store) Save(f domain.Flower) (domain.Flower, error) {
	if err := validate(f); err != nil {
		return domain.Flower{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID != "" {
		for i, cur := range s.flowers {
			if cur.ID == f.ID {
				s.flowers[i] = f
				s.persistLocked()
				return f, nil
			}
		}
	}

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.flowers = append(s.flowers, f)
	s.persistLocked()
	return f, nil
}

// Delete removes the record with the given identifier. Deleting an absent
// identifier is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.flowers {
		if f.ID == id {
			s.flowers = append(s.flowers[:i], s.flowers[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// persistLocked writes the full catalog back to the repository.
// Callers must hold s.mu. Failures are logged, not returned: the storefront
// keeps serving from memory even when the write fails.
func (s *Store) persistLocked() {
	snapshot := make([]domain.Flower, len(s.flowers))
	copy(snapshot, s.flowers)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.ReplaceCatalog(ctx, snapshot); err != nil {
		slog.Error("Failed to persist catalog", "error", err, "flowers", len(snapshot))
	}
}

func validate(f domain.Flower) error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if f.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if f.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if f.ImageURL == "" {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	return nil
}
