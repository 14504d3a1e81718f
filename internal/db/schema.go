package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// expired_at is stored as an RFC 3339 string and is always at the 23:59:59
// boundary of the chosen calendar day (normalized on insert), so bucket range
// filters can compare it directly. Foods always have one; other categories
// may leave it NULL.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('foods', 'cosmetics', 'others')),
    location    TEXT NOT NULL CHECK (location IN ('dry', 'wet', 'refrigerator', 'freezer')),
    type        TEXT,
    description TEXT,
    note        TEXT,
    bucket      TEXT,
    path        TEXT,
    expired_at  DATETIME,
    status      TEXT CHECK (status IN ('ate', 'out_date')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((bucket IS NULL) = (path IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_items_category_expired_at
    ON items(category, expired_at);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
