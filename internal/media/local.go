package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes uploads below a directory served by the HTTP server.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStore) Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return s.baseURL + "/" + folder + "/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || rel == "" {
		return nil
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	root, err := filepath.Abs(s.root)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}
