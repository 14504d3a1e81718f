// Package item implements the item lifecycle: validated creation, partial
// edits, consumption marking and deletion, coordinating the store with the
// attachment pipeline.
package item

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/blob"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// ImageBucket is the bucket item attachments are uploaded to.
const ImageBucket = "items"

// ValidationError reports a rejected field. It is returned before any store
// call is made, so a rejected submission never creates a partial item.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Service orchestrates item lifecycle transitions against the store and
// blob storage.
type Service struct {
	DB    *sql.DB
	Blobs blob.Store
}

// Image is a picked image file to attach to an item.
type Image struct {
	Filename string
	Data     []byte
}

// CreateInput carries the submitted fields for a new item.
type CreateInput struct {
	Name        string
	Category    string
	Location    string
	Type        string
	Description string
	Note        string
	ExpiredAt   *time.Time
	Image       *Image
}

// Create validates the input, runs the attachment pipeline if an image was
// picked, and inserts the item. An image failure aborts the whole creation.
// The expiration is normalized to the 23:59:59 boundary of its calendar
// day regardless of the time component picked.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Item, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	item := model.Item{
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Location:    in.Location,
		Type:        in.Type,
		Description: in.Description,
		Note:        in.Note,
	}

	if in.ExpiredAt != nil {
		t := EndOfDay(*in.ExpiredAt)
		item.ExpiredAt = &t
	}

	if in.Image != nil {
		ref, err := s.uploadImage(ctx, in.Image)
		if err != nil {
			return nil, fmt.Errorf("attaching image: %w", err)
		}
		item.Bucket = ref.Bucket
		item.Path = ref.Path
	}

	created, err := store.CreateItem(ctx, s.DB, item)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateInput carries the fields an edit changed. Nil fields stay
// untouched; a new image replaces the current attachment.
type UpdateInput struct {
	Name        *string
	Location    *string
	Type        *string
	Description *string
	Note        *string
	ExpiredAt   *time.Time
	Image       *Image
}

// Update applies a partial edit. Only the submitted fields are written, so
// fields the form didn't expose can't be clobbered. When a new image is
// picked the attachment reference is replaced and the old blob is deleted
// best-effort after the row update succeeds.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*model.Item, error) {
	current, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, store.ErrNotFound
	}

	if err := validateUpdate(current, in); err != nil {
		return nil, err
	}

	patch := store.ItemPatch{
		Name:        in.Name,
		Location:    in.Location,
		Type:        in.Type,
		Description: in.Description,
		Note:        in.Note,
	}
	if in.ExpiredAt != nil {
		t := EndOfDay(*in.ExpiredAt)
		patch.ExpiredAt = &t
	}

	var oldRef blob.Ref
	if in.Image != nil {
		ref, err := s.uploadImage(ctx, in.Image)
		if err != nil {
			return nil, fmt.Errorf("replacing image: %w", err)
		}
		patch.Bucket = &ref.Bucket
		patch.Path = &ref.Path
		if current.HasAttachment() {
			oldRef = blob.Ref{Bucket: current.Bucket, Path: current.Path}
		}
	}

	if err := store.UpdateItem(ctx, s.DB, id, patch); err != nil {
		return nil, err
	}

	if !oldRef.IsZero() {
		if err := s.Blobs.Delete(ctx, oldRef); err != nil {
			slog.Warn("deleting replaced attachment",
				"bucket", oldRef.Bucket, "path", oldRef.Path, "error", err)
		}
	}

	return store.GetItem(ctx, s.DB, id)
}

// MarkAte marks a food item as consumed. Only foods can be eaten, and
// marking an already-eaten item again is a no-op.
func (s *Service) MarkAte(ctx context.Context, id int64) error {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return store.ErrNotFound
	}

	if item.Category != model.CategoryFoods {
		return &ValidationError{Field: "category", Reason: "only foods can be marked as eaten"}
	}
	if item.Status == model.StatusAte {
		return nil
	}

	return store.SetItemStatus(ctx, s.DB, id, model.StatusAte)
}

// Delete removes the item and, if it has one, its attachment blob. The row
// goes first; attachment cleanup is best-effort and never blocks deletion.
func (s *Service) Delete(ctx context.Context, id int64) error {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return store.ErrNotFound
	}

	if err := store.DeleteItem(ctx, s.DB, id); err != nil {
		return err
	}

	if item.HasAttachment() {
		ref := blob.Ref{Bucket: item.Bucket, Path: item.Path}
		if err := s.Blobs.Delete(ctx, ref); err != nil {
			slog.Warn("deleting item attachment",
				"bucket", ref.Bucket, "path", ref.Path, "error", err)
		}
	}

	return nil
}

// uploadImage runs the attachment pipeline: resize, then upload under a
// generated name keeping the original extension.
func (s *Service) uploadImage(ctx context.Context, img *Image) (blob.Ref, error) {
	processed, err := imaging.Process(bytes.NewReader(img.Data))
	if err != nil {
		return blob.Ref{}, fmt.Errorf("processing image: %w", err)
	}

	ref, err := s.Blobs.Upload(ctx, ImageBucket, img.Filename, processed.Data)
	if err != nil {
		return blob.Ref{}, fmt.Errorf("uploading image: %w", err)
	}
	return ref, nil
}

// EndOfDay normalizes t to the 23:59:59 boundary of its calendar day. This
// is the canonical expiration contract the bucket boundary math relies on.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !model.ValidCategory(in.Category) {
		return &ValidationError{Field: "category", Reason: "must be foods, cosmetics or others"}
	}
	if !model.ValidLocation(in.Location) {
		return &ValidationError{Field: "location", Reason: "required"}
	}
	if in.Category == model.CategoryFoods && in.ExpiredAt == nil {
		return &ValidationError{Field: "expired_at", Reason: "required for foods"}
	}
	return nil
}

func validateUpdate(current *model.Item, in UpdateInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if in.Location != nil && !model.ValidLocation(*in.Location) {
		return &ValidationError{Field: "location", Reason: "invalid location"}
	}
	return nil
}
