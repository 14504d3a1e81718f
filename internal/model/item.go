package model

import "time"

// Item represents a tracked perishable item.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description,omitempty"`
	Note        string     `json:"note,omitempty"`
	Bucket      string     `json:"bucket,omitempty"`
	Path        string     `json:"path,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Item categories.
const (
	CategoryFoods     = "foods"
	CategoryCosmetics = "cosmetics"
	CategoryOthers    = "others"
)

// Storage locations.
const (
	LocationDry          = "dry"
	LocationWet          = "wet"
	LocationRefrigerator = "refrigerator"
	LocationFreezer      = "freezer"
)

// Food sub-types.
const (
	TypeVegetableFruit = "vegetable_fruit"
	TypeFreshMeat      = "fresh_meat"
)

// Item statuses. An empty status means the item is active. StatusOutDate is
// a reserved terminal value written by external jobs, never by this code.
const (
	StatusAte     = "ate"
	StatusOutDate = "out_date"
)

// ValidCategory reports whether category is a known item category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryFoods, CategoryCosmetics, CategoryOthers:
		return true
	}
	return false
}

// ValidLocation reports whether location is a known storage location.
func ValidLocation(location string) bool {
	switch location {
	case LocationDry, LocationWet, LocationRefrigerator, LocationFreezer:
		return true
	}
	return false
}

// HasAttachment reports whether the item has an image reference. Bucket and
// path are always set or cleared together.
func (i *Item) HasAttachment() bool {
	return i.Bucket != "" && i.Path != ""
}
