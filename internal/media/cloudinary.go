package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryStore uploads images to Cloudinary.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	res, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:       folder,
		PublicID:     uuid.NewString(),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload returned no URL")
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, url string) error {
	publicID := publicIDFromURL(url)
	if publicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

// publicIDFromURL turns
// https://res.cloudinary.com/<cloud>/image/upload/v123/<folder>/<id>.png
// into <folder>/<id>.
func publicIDFromURL(url string) string {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok {
		return ""
	}
	if strings.HasPrefix(rest, "v") {
		if version, tail, found := strings.Cut(rest, "/"); found && isDigits(version[1:]) {
			rest = tail
		}
	}
	return strings.TrimSuffix(rest, path.Ext(rest))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
