// Package search implements the paginated, keyword-filtered item feed that
// backs the infinitely scrolling list views, and the debounced search input
// feeding it.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// DefaultPageSize matches the list view's fetch size.
const DefaultPageSize = 5

// Feed accumulates pages of one category's items for infinite scroll.
//
// Exhaustion is signalled purely by an empty page, never by comparing
// against a total count: a result set that ends exactly on a page boundary
// costs one extra empty fetch before HasMore turns false. That trailing
// probe is deliberate and kept for behavioral compatibility.
type Feed struct {
	db       *sql.DB
	pageSize int

	mu       sync.Mutex
	category string
	keyword  string
	offset   int
	items    []model.Item
	hasMore  bool
}

// NewFeed creates an empty feed over one category. A non-positive pageSize
// falls back to DefaultPageSize.
func NewFeed(db *sql.DB, category string, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{db: db, category: category, pageSize: pageSize, hasMore: true}
}

// LoadMore fetches the next page and appends it to the accumulated items.
// Calling it on an exhausted feed is a no-op.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasMore {
		return nil
	}

	page, err := store.ListItems(ctx, f.db, store.Filter{
		Category: f.category,
		Keyword:  f.keyword,
	}, f.offset, f.pageSize)
	if err != nil {
		return fmt.Errorf("loading page: %w", err)
	}

	f.items = append(f.items, page...)
	f.hasMore = len(page) > 0
	f.offset += f.pageSize
	return nil
}

// SetKeyword changes the search keyword. Any change discards the
// accumulated items and restarts pagination from the top; setting the same
// keyword again is a no-op.
func (f *Feed) SetKeyword(keyword string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if keyword == f.keyword {
		return
	}
	f.keyword = keyword
	f.reset()
}

// SetCategory switches the active category, discarding accumulated items.
func (f *Feed) SetCategory(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if category == f.category {
		return
	}
	f.category = category
	f.reset()
}

// Reset discards accumulated items and restarts pagination, keeping the
// current category and keyword. Used after mutations and pull-to-refresh.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *Feed) reset() {
	f.offset = 0
	f.items = nil
	f.hasMore = true
}

// Items returns a copy of the accumulated items.
func (f *Feed) Items() []model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Item, len(f.items))
	copy(out, f.items)
	return out
}

// HasMore reports whether another LoadMore may yield items.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Keyword returns the active search keyword.
func (f *Feed) Keyword() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keyword
}
