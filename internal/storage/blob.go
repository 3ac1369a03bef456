// Package storage archives uploaded source files.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// BlobStore keeps uploaded files. Put returns where the object ended up.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
}

// UploadKey builds the archive key for a staged upload:
// uploads/<yyyy>/<mm>/<dd>/<name>.
func UploadKey(now time.Time, name string) string {
	name = strings.ReplaceAll(path.Base(strings.ReplaceAll(name, "\\", "/")), " ", "_")
	return fmt.Sprintf("uploads/%s/%s", now.UTC().Format("2006/01/02"), name)
}
