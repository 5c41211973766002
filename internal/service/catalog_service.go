package service

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"imagedrop/api/internal/apierr"
	"imagedrop/api/internal/models"
	"imagedrop/api/internal/storage"
)

// imageExtensions is the recognized set for catalog listing, matched
// case-insensitively. Files placed in storage out of band still show up as
// long as their extension is recognized.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type CatalogService struct {
	store storage.Backend
	log   zerolog.Logger
}

func NewCatalogService(store storage.Backend, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		log:   log,
	}
}

// ListImages re-reads the backend on every call. No cache: the storage is the
// catalog, and external additions or removals must be visible immediately.
func (s *CatalogService) ListImages(ctx context.Context) ([]models.StoredImage, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("storage listing failed")
		return nil, apierr.Storage("failed to list stored images")
	}

	images := make([]models.StoredImage, 0, len(entries))
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name))
		if _, ok := imageExtensions[ext]; !ok {
			continue
		}
		images = append(images, models.StoredImage{
			Filename:  entry.Name,
			Size:      entry.Size,
			CreatedAt: entry.ModTime,
		})
	}

	// Stable over the backend's deterministic read order, so equal
	// timestamps keep a consistent ordering within a process run.
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})

	return images, nil
}
