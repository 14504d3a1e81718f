package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/expiry"
	"github.com/erazemk/shramba/internal/model"
)

// ErrNotFound is returned by mutations whose target item no longer exists.
var ErrNotFound = errors.New("item not found")

// Filter selects items for list and count queries. All fields are optional.
// Keyword is matched case-insensitively as a substring of name, description
// or note (an item matches if any one field contains it). Bucket restricts
// results to an expiration bucket relative to Now (zero Now means the wall
// clock); items without an expiration never match a bucket filter.
type Filter struct {
	Category string
	Keyword  string
	Bucket   expiry.Bucket
	Now      time.Time
}

const itemColumns = `id, name, category, location, type, description, note,
	bucket, path, expired_at, status, created_at, updated_at`

// where builds the WHERE clause and arguments for the filter. Returns an
// empty string when nothing is filtered.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}

	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		conds = append(conds, `(instr(lower(name), ?) > 0
			OR instr(lower(coalesce(description, '')), ?) > 0
			OR instr(lower(coalesce(note, '')), ?) > 0)`)
		args = append(args, kw, kw, kw)
	}

	if f.Bucket != "" {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		r := expiry.Bounds(f.Bucket, now)

		conds = append(conds, "expired_at IS NOT NULL")
		if r.From != nil {
			if r.FromExclusive {
				conds = append(conds, "expired_at > ?")
			} else {
				conds = append(conds, "expired_at >= ?")
			}
			args = append(args, r.From.UTC())
		}
		if r.To != nil {
			if r.ToInclusive {
				conds = append(conds, "expired_at <= ?")
			} else {
				conds = append(conds, "expired_at < ?")
			}
			args = append(args, r.To.UTC())
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListItems returns the window [offset, offset+limit) of filtered items,
// ordered by expiration ascending with NULL expirations last. A negative
// limit returns everything from offset on.
func ListItems(ctx context.Context, db *sql.DB, f Filter, offset, limit int) ([]model.Item, error) {
	where, args := f.where()
	query := `SELECT ` + itemColumns + ` FROM items` + where +
		` ORDER BY expired_at IS NULL, expired_at ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountItems returns the number of items matching the filter. No match is
// zero, not an error.
func CountItems(ctx context.Context, db *sql.DB, f Filter) (int, error) {
	where, args := f.where()

	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// GetItem returns an item by ID, or nil if it doesn't exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// CreateItem inserts a new item and returns the stored row.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, category, location, type, description, note, bucket, path, expired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.Location,
		nullString(item.Type), nullString(item.Description), nullString(item.Note),
		nullString(item.Bucket), nullString(item.Path), nullTime(item.ExpiredAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// ItemPatch holds the fields an edit can change. Nil fields are left
// untouched. ID and category are immutable; the attachment reference is
// replaced as a pair.
type ItemPatch struct {
	Name        *string
	Location    *string
	Type        *string
	Description *string
	Note        *string
	Bucket      *string
	Path        *string
	ExpiredAt   *time.Time
}

// UpdateItem applies a partial update to an item. Only the set fields are
// written, so an edit can never clobber fields it didn't touch.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, patch ItemPatch) error {
	var sets []string
	var args []any

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Type != nil {
		set("type", nullString(*patch.Type))
	}
	if patch.Description != nil {
		set("description", nullString(*patch.Description))
	}
	if patch.Note != nil {
		set("note", nullString(*patch.Note))
	}
	if patch.Bucket != nil {
		set("bucket", nullString(*patch.Bucket))
	}
	if patch.Path != nil {
		set("path", nullString(*patch.Path))
	}
	if patch.ExpiredAt != nil {
		set("expired_at", patch.ExpiredAt.UTC())
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	result, err := db.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetItemStatus sets an item's status. Writing the current value again is a
// no-op at the data level.
func SetItemStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(status), id,
	)
	if err != nil {
		return fmt.Errorf("setting item status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes an item. Deletion is immediate and irreversible.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var typ, description, note, bucket, path, status sql.NullString
	var expiredAt sql.NullTime

	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.Location,
		&typ, &description, &note, &bucket, &path, &expiredAt, &status,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Type = typ.String
	item.Description = description.String
	item.Note = note.String
	item.Bucket = bucket.String
	item.Path = path.String
	item.Status = status.String
	if expiredAt.Valid {
		t := expiredAt.Time
		item.ExpiredAt = &t
	}
	return item, nil
}

// nullString maps "" to NULL so optional columns stay NULL instead of
// holding empty strings.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime stores times in UTC so the text representation SQLite compares
// against bucket bounds is consistent.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
