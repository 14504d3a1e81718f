package expiry

import "time"

// Bucket is an expiration-urgency class.
type Bucket string

// The four buckets partition the timeline around "now": anything before the
// start of today is expired, today's calendar day is today, the next three
// days are soon, everything after is good.
const (
	BucketGood    Bucket = "good"
	BucketSoon    Bucket = "soon"
	BucketToday   Bucket = "today"
	BucketExpired Bucket = "expired"
)

// Buckets lists all buckets in urgency order, from most to least time left.
var Buckets = []Bucket{BucketGood, BucketSoon, BucketToday, BucketExpired}

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketGood, BucketSoon, BucketToday, BucketExpired:
		return true
	}
	return false
}

// DayStart truncates t to the start of its calendar day.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Classify maps an expiration timestamp to its bucket relative to now.
// Ties at exact day boundaries resolve to the earlier bucket: an item
// expiring exactly at tomorrow's midnight is soon, not today, and one
// expiring exactly at midnight three days out is still soon.
func Classify(expiredAt, now time.Time) Bucket {
	dayStart := DayStart(now)
	plus1 := dayStart.AddDate(0, 0, 1)
	plus3 := dayStart.AddDate(0, 0, 3)

	switch {
	case expiredAt.Before(dayStart):
		return BucketExpired
	case expiredAt.Before(plus1):
		return BucketToday
	case !expiredAt.After(plus3):
		return BucketSoon
	default:
		return BucketGood
	}
}

// Range is the window of expiration timestamps a bucket covers. A nil
// endpoint is unbounded. From is inclusive unless FromExclusive is set (the
// good bucket opens strictly after todayStart+3d); To is exclusive unless
// ToInclusive is set (the soon bucket closes at todayStart+3d).
type Range struct {
	From          *time.Time
	To            *time.Time
	FromExclusive bool
	ToInclusive   bool
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil {
		if r.FromExclusive {
			if !t.After(*r.From) {
				return false
			}
		} else if t.Before(*r.From) {
			return false
		}
	}
	if r.To != nil {
		if r.ToInclusive {
			return !t.After(*r.To)
		}
		return t.Before(*r.To)
	}
	return true
}

// Bounds returns the time range the bucket covers relative to now. The
// store applies it as a SQL range filter, so queries and Classify can never
// disagree on boundary timestamps.
func Bounds(bucket Bucket, now time.Time) Range {
	dayStart := DayStart(now)
	plus1 := dayStart.AddDate(0, 0, 1)
	plus3 := dayStart.AddDate(0, 0, 3)

	switch bucket {
	case BucketExpired:
		return Range{To: &dayStart}
	case BucketToday:
		return Range{From: &dayStart, To: &plus1}
	case BucketSoon:
		return Range{From: &plus1, To: &plus3, ToInclusive: true}
	default:
		return Range{From: &plus3, FromExclusive: true}
	}
}
