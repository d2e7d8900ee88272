// Package media stores uploaded images and hands back the URL they are served from.
package media

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/pkg/config"
)

// Upload folders.
const (
	FolderProfilePictures = "profile_pics"
	FolderPostImages      = "post_images"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Store persists uploaded files.
type Store interface {
	// Save stores the file under folder and returns its public URL. Callers
	// run ValidateImage first.
	Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
	// Delete removes a file previously returned by Save. Unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// NewStore builds the store selected by MEDIA_BACKEND.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	case config.MediaBackendLocal, "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

// ValidateImage checks the extension and size of an upload and reports
// problems against the given form field.
func ValidateImage(field string, file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return apperror.NewFieldError(field, "Upload a valid image. Supported formats: JPG, JPEG, PNG, GIF, WEBP, BMP.")
	}
	if file.Size > MaxImageSize {
		return apperror.NewFieldError(field, "Image size must not exceed 10MB.")
	}
	return nil
}
