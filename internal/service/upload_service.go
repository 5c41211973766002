package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagedrop/api/internal/apierr"
	"imagedrop/api/internal/config"
	"imagedrop/api/internal/ids"
	"imagedrop/api/internal/models"
	"imagedrop/api/internal/storage"
)

// allowedMIMETypes is the full accepted set; anything else is rejected before
// a single byte is persisted.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

type UploadService struct {
	store storage.Backend
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewUploadService(store storage.Backend, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// UploadOne validates and persists a single file, returning its metadata.
func (s *UploadService) UploadOne(ctx context.Context, header *multipart.FileHeader) (models.StoredImage, error) {
	if err := s.validate(header); err != nil {
		return models.StoredImage{}, err
	}
	return s.persist(ctx, header)
}

// UploadMany validates the whole batch up front and only then persists, in
// submission order. One invalid file fails the request before anything is
// written (all-or-nothing).
func (s *UploadService) UploadMany(ctx context.Context, headers []*multipart.FileHeader) ([]models.StoredImage, error) {
	if len(headers) > s.cfg.Upload.MaxFiles {
		return nil, apierr.Validation("too many files, maximum is %d per request", s.cfg.Upload.MaxFiles)
	}

	for _, header := range headers {
		if err := s.validate(header); err != nil {
			return nil, err
		}
	}

	images := make([]models.StoredImage, 0, len(headers))
	for _, header := range headers {
		image, err := s.persist(ctx, header)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

func (s *UploadService) validate(header *multipart.FileHeader) error {
	declared := declaredMIME(header)
	if _, ok := allowedMIMETypes[declared]; !ok {
		return apierr.Validation(
			"unsupported file type %q: only JPEG, PNG, GIF and WebP images are accepted", declared)
	}

	if header.Size > s.cfg.Upload.MaxFileSize {
		return apierr.TooLarge(s.cfg.Upload.MaxFileSize)
	}
	return nil
}

func (s *UploadService) persist(ctx context.Context, header *multipart.FileHeader) (models.StoredImage, error) {
	file, err := header.Open()
	if err != nil {
		return models.StoredImage{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name := ids.NewUploadName(header.Filename)

	written, err := s.store.Save(ctx, name, file, header.Size, declaredMIME(header))
	if err != nil {
		return models.StoredImage{}, apierr.Storage("failed to store the uploaded image")
	}

	s.log.Debug().
		Str("filename", name).
		Str("original_name", header.Filename).
		Int64("size", written).
		Msg("image stored")

	return models.StoredImage{
		Filename:     name,
		OriginalName: header.Filename,
		Size:         written,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func declaredMIME(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
