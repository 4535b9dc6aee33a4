package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// RecipeImageDir is where recipe images live, relative to the media root.
const RecipeImageDir = "uploads/recipe"

// FileStorage keeps uploaded media on the local filesystem.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file storage instance
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, filepath.FromSlash(RecipeImageDir)), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{basePath: basePath}, nil
}

// Root returns the directory uploaded files are served from.
func (f *FileStorage) Root() string {
	return f.basePath
}

// SaveRecipeImage writes data under a freshly generated name and returns the
// slash-separated path relative to the media root, e.g.
// "uploads/recipe/0b6c...e1.png". Existing files are never overwritten.
func (f *FileStorage) SaveRecipeImage(ext string, data []byte) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("invalid file extension %q", ext)
	}

	rel := path.Join(RecipeImageDir, uuid.NewString()+"."+ext)
	full := filepath.Join(f.basePath, filepath.FromSlash(rel))
	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	_, err = file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return rel, nil
}

// RemoveRecipeImage deletes a file previously returned by SaveRecipeImage.
// A file that is already gone is not an error.
func (f *FileStorage) RemoveRecipeImage(rel string) error {
	if rel != path.Join(RecipeImageDir, path.Base(rel)) {
		return fmt.Errorf("not a recipe image path: %q", rel)
	}
	if err := os.Remove(filepath.Join(f.basePath, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}
