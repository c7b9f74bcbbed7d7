package storage

import (
	"context"
	"io"
)

// ObjectStorage is the slice of the image bucket the app uses: upload,
// public-URL retrieval and delete-by-path.
type ObjectStorage interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	PublicURL(path string) string
	Remove(ctx context.Context, path string) error
}
