// Package availability computes which calendar days a tool cannot be rented on.
//
// Blocked ranges come from two sources: rentals reported by the server and
// reservations this client made recently that the server may not list yet.
// Every value here is derived; nothing is mutated in place.
package availability

import (
	"errors"
	"sort"
	"strings"
	"time"

	"toolrent-cli/api"
)

// ErrRangeBlocked is returned when a requested interval overlaps a blocked range.
var ErrRangeBlocked = errors.New("dates overlap an existing rental")

const dateLayout = "2006-01-02"

// DateRange is one reservation's occupied span. Start and End are calendar
// dates at UTC midnight and both are inclusive.
type DateRange struct {
	ID     string    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Local  bool      `json:"local,omitempty"`
}

func (r DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return !other.Start.After(r.End) && !other.End.Before(r.Start)
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// Day truncates t to its calendar date at UTC midnight, keeping the
// year/month/day as seen in t's own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts the date shapes the backend has been seen to send.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		dateLayout,
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return Day(parsed), true
		}
	}
	return time.Time{}, false
}

// NewRange builds a range from two date strings. ok is false when either date
// is unparsable or end precedes start.
func NewRange(id, start, end, status string) (DateRange, bool) {
	s, ok := ParseDate(start)
	if !ok {
		return DateRange{}, false
	}
	e, ok := ParseDate(end)
	if !ok {
		return DateRange{}, false
	}
	if e.Before(s) {
		return DateRange{}, false
	}
	return DateRange{ID: id, Start: s, End: e, Status: strings.ToUpper(status)}, true
}

// Blocking reports whether a rental in this status occupies the tool.
func Blocking(status string) bool {
	switch strings.ToUpper(status) {
	case api.StatusApproved, api.StatusPending:
		return true
	}
	return false
}

// ComputeBlockedRanges returns the server's APPROVED and PENDING rentals for
// toolID followed by local reservations for toolID that have not ended before
// now and are not yet listed by the server. Overlapping ranges are kept as is.
// The result is ordered by start date.
func ComputeBlockedRanges(toolID int64, serverRentals []api.Rental, cache LocalCache, now time.Time) []DateRange {
	blocked := []DateRange{}
	seen := map[string]struct{}{}
	for _, rental := range serverRentals {
		if rental.ToolRef() != toolID || !Blocking(rental.Status) {
			continue
		}
		id := RentalID(rental.ID)
		r, ok := NewRange(id, rental.StartDate, rental.EndDate, rental.Status)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		blocked = append(blocked, r)
	}

	today := Day(now)
	for _, local := range cache.For(toolID) {
		if _, dup := seen[local.ID]; dup && local.ID != "" {
			continue
		}
		r, ok := local.Range()
		if !ok || r.End.Before(today) {
			continue
		}
		blocked = append(blocked, r)
	}

	sort.SliceStable(blocked, func(i, j int) bool {
		return blocked[i].Start.Before(blocked[j].Start)
	})
	return blocked
}

// IsRangeBlocked uses inclusive bounds: touching on the same day is an overlap.
func IsRangeBlocked(candidate DateRange, blocked []DateRange) bool {
	_, found := FirstConflict(candidate, blocked)
	return found
}

func FirstConflict(candidate DateRange, blocked []DateRange) (DateRange, bool) {
	for _, r := range blocked {
		if !candidate.Start.After(r.End) && !candidate.End.Before(r.Start) {
			return r, true
		}
	}
	return DateRange{}, false
}

// DaysBetween counts whole days between the UTC midnights of start and end.
// Callers must pass start <= end. With inclusive set a same-day rental is 1 day.
func DaysBetween(start, end time.Time, inclusive bool) int {
	days := int(Day(end).Sub(Day(start)).Hours() / 24)
	if inclusive {
		days++
	}
	return days
}
