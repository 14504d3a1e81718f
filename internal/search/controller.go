package search

import (
	"context"
	"sync"
	"time"
)

// Controller connects a search input to a feed. Keystrokes are debounced:
// when a burst of typing settles, the last keyword wins, the feed resets
// and the first page is fetched.
//
// There is no request-generation fencing between overlapping fetches; a
// stale response can land after a fresher one. Each keyword change resets
// the feed before refetching, which bounds the damage to one page of stale
// data. Closing the controller stops further state updates (the
// still-mounted guard) without aborting an in-flight fetch.
type Controller struct {
	feed     *Feed
	debounce *Debouncer
	onUpdate func(*Feed)

	mu     sync.Mutex
	closed bool
	err    error
}

// NewController creates a controller over the feed. onUpdate, if non-nil,
// runs after every settled search so a view can re-render; it is never
// called after Close.
func NewController(feed *Feed, quiet time.Duration, onUpdate func(*Feed)) *Controller {
	return &Controller{
		feed:     feed,
		debounce: NewDebouncer(quiet),
		onUpdate: onUpdate,
	}
}

// Type records a keystroke. Rapid calls coalesce; only the final keyword
// before the quiet period triggers a reset and refetch.
func (c *Controller) Type(keyword string) {
	c.debounce.Call(func() { c.apply(keyword) })
}

// Err returns the error of the most recent settled search, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close cancels any pending search and stops future updates from settling
// fetches.
func (c *Controller) Close() {
	c.debounce.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) apply(keyword string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.feed.SetKeyword(keyword)
	err := c.feed.LoadMore(context.Background())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.err = err
	if c.onUpdate != nil {
		c.onUpdate(c.feed)
	}
}
