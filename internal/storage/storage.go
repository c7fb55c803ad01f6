// Package storage keeps uploaded resume files in a blob store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxResumeBytes is the largest resume upload accepted.
const MaxResumeBytes = 4 << 20

var (
	// ErrNotFound is returned by Get for unknown keys.
	ErrNotFound = errors.New("object not found")
	// ErrTooLarge is returned by Put when data exceeds MaxResumeBytes.
	ErrTooLarge = errors.New("object exceeds size limit")
)

// Blobs stores opaque objects by key.
type Blobs interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// ResumeKey returns the object key for a user's upload. The file name is reduced
// to its base name so callers cannot escape the user's prefix.
func ResumeKey(userID uuid.UUID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "resume"
	}
	return fmt.Sprintf("resumes/%s/%s-%s", userID, uuid.NewString()[:8], name)
}

func checkSize(data []byte) error {
	if len(data) > MaxResumeBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return nil
}
