// Package blob provides the object storage the item attachments live in:
// a store contract, a filesystem-backed implementation, and signed URLs
// for handing blobs to clients.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ref points at a stored object. Both fields are always set together; a
// zero Ref means no object.
type Ref struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool {
	return r.Bucket == "" && r.Path == ""
}

// Store is the blob storage contract the item lifecycle depends on.
// Uploads always store under a machine-generated unique name so concurrent
// uploads can never collide; only the original filename's extension is kept.
type Store interface {
	Upload(ctx context.Context, bucket, filename string, data []byte) (Ref, error)
	Open(ctx context.Context, ref Ref) (io.ReadCloser, error)
	Delete(ctx context.Context, ref Ref) error
}

// Dir is a filesystem-backed Store: each bucket is a directory under the
// root and each object a file inside it.
type Dir struct {
	root string
}

// NewDir creates a store rooted at the given directory.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Upload stores data under a fresh UUID name, preserving the original
// filename's extension.
func (d *Dir) Upload(ctx context.Context, bucket, filename string, data []byte) (Ref, error) {
	if err := validComponent(bucket); err != nil {
		return Ref{}, fmt.Errorf("invalid bucket: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	dir := filepath.Join(d.root, bucket)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, fmt.Errorf("creating bucket directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return Ref{}, fmt.Errorf("writing blob: %w", err)
	}

	return Ref{Bucket: bucket, Path: name}, nil
}

// Open returns a reader over the referenced blob.
func (d *Dir) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	path, err := d.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

// Delete removes the referenced blob. Deleting a blob that is already gone
// is not an error.
func (d *Dir) Delete(ctx context.Context, ref Ref) error {
	path, err := d.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// resolve maps a reference to its file path, rejecting path escapes.
func (d *Dir) resolve(ref Ref) (string, error) {
	if err := validComponent(ref.Bucket); err != nil {
		return "", fmt.Errorf("invalid bucket: %w", err)
	}
	if err := validComponent(ref.Path); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return filepath.Join(d.root, ref.Bucket, ref.Path), nil
}

func validComponent(s string) error {
	if s == "" {
		return fmt.Errorf("empty")
	}
	if strings.ContainsAny(s, "/\\") || s == "." || s == ".." {
		return fmt.Errorf("contains path separators")
	}
	return nil
}
