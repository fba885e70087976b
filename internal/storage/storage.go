// Package storage keeps product image files on local disk or in S3-compatible
// object storage. Images are addressed by relative paths of the form
// "uploads/<uuid><ext>", which is also what the API serves them under.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidPath = errors.New("invalid image path")
)

// PathPrefix is the leading segment of every image path.
const PathPrefix = "uploads/"

// ImageStore persists image bytes under generated paths.
type ImageStore interface {
	// Save stores data and returns the new image path. ext includes the leading dot.
	Save(ctx context.Context, contentType, ext string, data []byte) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

func newPath(ext string) string {
	return PathPrefix + uuid.NewString() + ext
}

// objectName returns the file name part of path, rejecting anything that is
// not a single name directly under PathPrefix.
func objectName(path string) (string, error) {
	name, ok := strings.CutPrefix(path, PathPrefix)
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidPath
	}
	return name, nil
}
