// Package storage holds the blob stores used for product images. Blobs are
// addressed by a generated path relative to the store root, such as
// "products/3hV0...Qz.png".
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"catalog/internal/models"

	"github.com/labstack/gommon/random"
)

// ErrInvalidPath is returned for paths that would escape the store root.
var ErrInvalidPath = errors.New("invalid blob path")

const nameLength = 40

// BlobStore stores and removes image files.
type BlobStore interface {
	// Put stores the upload under namespace and returns its generated path.
	Put(ctx context.Context, namespace string, upload *models.ImageUpload) (string, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// List returns every blob whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Ping(ctx context.Context) error
}

type BlobInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// generatePath builds "<namespace>/<40 random chars>.<ext>".
func generatePath(namespace, ext string) string {
	name := random.String(nameLength, random.Alphanumeric)
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return path.Join(strings.Trim(namespace, "/"), name)
}

// cleanPath validates a relative blob path.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
