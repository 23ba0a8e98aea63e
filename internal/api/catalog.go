package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rabiehflowers/storefront/internal/catalog"
	"github.com/rabiehflowers/storefront/internal/domain"
	"github.com/rabiehflowers/storefront/internal/images"
)

// CatalogHandler handles catalog endpoints.
type CatalogHandler struct {
	store     *catalog.Store
	maxUpload int64
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(store *catalog.Store, maxUpload int64) *CatalogHandler {
	return &CatalogHandler{store: store, maxUpload: maxUpload}
}

// RegisterPublic registers routes available to every visitor.
func (h *CatalogHandler) RegisterPublic(r chi.Router) {
	r.Get("/api/flowers", h.ListFlowers)
}

// RegisterOwner registers routes that require an owner session.
func (h *CatalogHandler) RegisterOwner(r chi.Router) {
	r.Post("/api/flowers", h.SaveFlower)
	r.Delete("/api/flowers/{id}", h.DeleteFlower)
	r.Post("/api/flowers/image", h.EncodeImage)
}

// ListFlowers returns the catalog and its derived category set.
func (h *CatalogHandler) ListFlowers(w http.ResponseWriter, r *http.Request) {
	flowers := h.store.List()
	JSON(w, http.StatusOK, map[string]interface{}{
		"flowers":    flowers,
		"categories": catalog.DeriveCategories(flowers),
	})
}

// SaveFlower creates or updates a catalog record.
func (h *CatalogHandler) SaveFlower(w http.ResponseWriter, r *http.Request) {
	var f domain.Flower
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.store.Save(f)
	if errors.Is(err, catalog.ErrValidation) {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		slog.Error("Failed to save flower", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save flower")
		return
	}

	slog.Info("Flower saved", "id", saved.ID, "name", saved.Name, "category", saved.Category)
	JSON(w, http.StatusOK, saved)
}

// DeleteFlower removes a catalog record. Deleting an unknown identifier
// succeeds without effect.
func (h *CatalogHandler) DeleteFlower(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Delete(id)
	slog.Info("Flower deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// EncodeImage converts an uploaded image file into a data URL for use as a
// flower's image reference.
func (h *CatalogHandler) EncodeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("image")
	if err != nil {
		Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	dataURL, err := images.EncodeDataURL(file)
	if err != nil {
		slog.Warn("Failed to encode uploaded image", "error", err, "filename", header.Filename)
		Error(w, http.StatusUnprocessableEntity, "could not decode image")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"imageUrl": dataURL})
}
