package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/expiry"
	"github.com/erazemk/shramba/internal/model"
)

var testNow = time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)

// endOfDay returns the 23:59:59 expiration for the day offset days from
// testNow, matching the normalization the lifecycle applies on creation.
func endOfDay(days int) *time.Time {
	t := expiry.DayStart(testNow).AddDate(0, 0, days).Add(24*time.Hour - time.Second)
	return &t
}

func mustCreate(t *testing.T, database *sql.DB, item model.Item) *model.Item {
	t.Helper()
	if item.Location == "" {
		item.Location = model.LocationDry
	}
	created, err := CreateItem(context.Background(), database, item)
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", item.Name, err)
	}
	return created
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := mustCreate(t, database, model.Item{
		Name:      "Milk",
		Category:  model.CategoryFoods,
		Location:  model.LocationRefrigerator,
		Type:      model.TypeFreshMeat,
		Note:      "half open",
		ExpiredAt: endOfDay(2),
	})

	if created.ID == 0 {
		t.Error("expected store-assigned id")
	}
	if created.Status != "" {
		t.Errorf("expected active (empty) status, got %q", created.Status)
	}

	got, err := GetItem(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("expected item, got nil")
	}
	if got.Name != "Milk" || got.Category != model.CategoryFoods || got.Location != model.LocationRefrigerator {
		t.Errorf("unexpected item: %+v", got)
	}
	if got.ExpiredAt == nil || got.ExpiredAt.Unix() != endOfDay(2).Unix() {
		t.Errorf("expected expiration %v, got %v", endOfDay(2), got.ExpiredAt)
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	got, err := GetItem(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing item, got %+v", got)
	}
}

func TestListItemsOrderAndWindow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Inserted out of order; listing must sort by expiration ascending.
	mustCreate(t, database, model.Item{Name: "c", Category: model.CategoryFoods, ExpiredAt: endOfDay(5)})
	mustCreate(t, database, model.Item{Name: "a", Category: model.CategoryFoods, ExpiredAt: endOfDay(1)})
	mustCreate(t, database, model.Item{Name: "d", Category: model.CategoryOthers}) // no expiration, sorts last
	mustCreate(t, database, model.Item{Name: "b", Category: model.CategoryFoods, ExpiredAt: endOfDay(3)})

	all, err := ListItems(ctx, database, Filter{}, 0, -1)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	want := []string{"a", "b", "c", "d"}
	if len(all) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(all))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, all[i].Name)
		}
	}

	// Window [1, 3).
	window, err := ListItems(ctx, database, Filter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListItems window: %v", err)
	}
	if len(window) != 2 || window[0].Name != "b" || window[1].Name != "c" {
		t.Errorf("unexpected window: %+v", window)
	}

	// Window past the end is empty, not an error.
	empty, err := ListItems(ctx, database, Filter{}, 10, 5)
	if err != nil {
		t.Fatalf("ListItems past end: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty window, got %d items", len(empty))
	}
}

func TestListItemsPagesEqualExhaustiveFetch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		mustCreate(t, database, model.Item{
			Name:      string(rune('a' + i)),
			Category:  model.CategoryFoods,
			ExpiredAt: endOfDay(i),
		})
	}

	exhaustive, err := ListItems(ctx, database, Filter{Category: model.CategoryFoods}, 0, -1)
	if err != nil {
		t.Fatalf("exhaustive fetch: %v", err)
	}

	var paged []model.Item
	for offset := 0; ; offset += 5 {
		page, err := ListItems(ctx, database, Filter{Category: model.CategoryFoods}, offset, 5)
		if err != nil {
			t.Fatalf("page at %d: %v", offset, err)
		}
		if len(page) == 0 {
			break
		}
		paged = append(paged, page...)
	}

	if len(paged) != len(exhaustive) {
		t.Fatalf("paged %d items, exhaustive %d", len(paged), len(exhaustive))
	}
	for i := range paged {
		if paged[i].ID != exhaustive[i].ID {
			t.Errorf("position %d: paged id %d, exhaustive id %d", i, paged[i].ID, exhaustive[i].ID)
		}
	}
}

func TestKeywordMatchesAnyField(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreate(t, database, model.Item{Name: "Oat milk", Category: model.CategoryFoods, ExpiredAt: endOfDay(1)})
	mustCreate(t, database, model.Item{Name: "Cereal", Description: "eat with MILK", Category: model.CategoryFoods, ExpiredAt: endOfDay(2)})
	mustCreate(t, database, model.Item{Name: "Coffee", Note: "needs milk!", Category: model.CategoryFoods, ExpiredAt: endOfDay(3)})
	mustCreate(t, database, model.Item{Name: "Juice", Category: model.CategoryFoods, ExpiredAt: endOfDay(4)})

	// Case-insensitive, whitespace-trimmed, OR across name/description/note.
	items, err := ListItems(ctx, database, Filter{Keyword: "  MiLk "}, 0, -1)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 matches, got %d", len(items))
	}

	// Empty and whitespace-only keywords match everything.
	for _, kw := range []string{"", "   "} {
		count, err := CountItems(ctx, database, Filter{Keyword: kw})
		if err != nil {
			t.Fatalf("CountItems: %v", err)
		}
		if count != 4 {
			t.Errorf("keyword %q: expected 4, got %d", kw, count)
		}
	}

	// No match is zero, not an error.
	count, err := CountItems(ctx, database, Filter{Keyword: "tofu"})
	if err != nil {
		t.Fatalf("CountItems no match: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

func TestBucketCountsSumToTotal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// One item per bucket plus extras straddling each boundary.
	offsets := []int{-30, -1, 0, 0, 1, 2, 3, 4, 60}
	for i, days := range offsets {
		mustCreate(t, database, model.Item{
			Name:      string(rune('a' + i)),
			Category:  model.CategoryFoods,
			ExpiredAt: endOfDay(days),
		})
	}
	// An item without expiration is excluded from every bucket.
	mustCreate(t, database, model.Item{Name: "timeless", Category: model.CategoryFoods})

	sum := 0
	for _, bucket := range expiry.Buckets {
		n, err := CountItems(ctx, database, Filter{
			Category: model.CategoryFoods,
			Bucket:   bucket,
			Now:      testNow,
		})
		if err != nil {
			t.Fatalf("CountItems(%s): %v", bucket, err)
		}
		sum += n
	}

	if sum != len(offsets) {
		t.Errorf("bucket counts sum to %d, want %d", sum, len(offsets))
	}
}

func TestBucketFilterAgreesWithClassify(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	items := map[string]int{
		"expired-old":  -10,
		"expired-edge": -1,
		"today-edge":   0,
		"soon-low":     1,
		"soon-high":    2,
		"good-edge":    3, // 23:59:59 on day 3 is past the soon cutoff
		"good-far":     30,
	}
	for name, days := range items {
		mustCreate(t, database, model.Item{
			Name:      name,
			Category:  model.CategoryFoods,
			ExpiredAt: endOfDay(days),
		})
	}

	for _, bucket := range expiry.Buckets {
		listed, err := ListItems(ctx, database, Filter{Bucket: bucket, Now: testNow}, 0, -1)
		if err != nil {
			t.Fatalf("ListItems(%s): %v", bucket, err)
		}
		for _, it := range listed {
			if got := expiry.Classify(*it.ExpiredAt, testNow); got != bucket {
				t.Errorf("%s listed under %q but classifies as %q", it.Name, bucket, got)
			}
		}
	}
}

func TestUpdateItemPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := mustCreate(t, database, model.Item{
		Name:        "Face cream",
		Category:    model.CategoryCosmetics,
		Location:    model.LocationWet,
		Description: "spf 30",
		ExpiredAt:   endOfDay(90),
	})

	note := "opened today"
	if err := UpdateItem(ctx, database, created.ID, ItemPatch{Note: &note}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, created.ID)
	if got.Note != "opened today" {
		t.Errorf("expected note update, got %q", got.Note)
	}
	// Untouched fields survive the patch.
	if got.Name != "Face cream" || got.Description != "spf 30" || got.Location != model.LocationWet {
		t.Errorf("patch clobbered untouched fields: %+v", got)
	}
	if got.ExpiredAt == nil || got.ExpiredAt.Unix() != created.ExpiredAt.Unix() {
		t.Errorf("patch clobbered expiration: %v", got.ExpiredAt)
	}
}

func TestUpdateItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	name := "ghost"
	err := UpdateItem(context.Background(), database, 99, ItemPatch{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItemEmptyPatch(t *testing.T) {
	database := db.NewTestDB(t)

	// Nothing to write, nothing to check: a no-op even for missing rows.
	if err := UpdateItem(context.Background(), database, 99, ItemPatch{}); err != nil {
		t.Errorf("expected nil for empty patch, got %v", err)
	}
}

func TestSetItemStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := mustCreate(t, database, model.Item{
		Name:      "Yoghurt",
		Category:  model.CategoryFoods,
		ExpiredAt: endOfDay(1),
	})

	if err := SetItemStatus(ctx, database, created.ID, model.StatusAte); err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	got, _ := GetItem(ctx, database, created.ID)
	if got.Status != model.StatusAte {
		t.Errorf("expected status ate, got %q", got.Status)
	}

	// Setting the same status again is a no-op, not an error.
	if err := SetItemStatus(ctx, database, created.ID, model.StatusAte); err != nil {
		t.Errorf("expected idempotent status write, got %v", err)
	}

	if err := SetItemStatus(ctx, database, 99, model.StatusAte); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created := mustCreate(t, database, model.Item{
		Name:      "Leftovers",
		Category:  model.CategoryFoods,
		ExpiredAt: endOfDay(0),
	})

	if err := DeleteItem(ctx, database, created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, _ := GetItem(ctx, database, created.ID)
	if got != nil {
		t.Error("expected item to be gone after delete")
	}

	if err := DeleteItem(ctx, database, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
