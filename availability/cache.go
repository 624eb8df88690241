package availability

import (
	"sort"
	"strconv"
	"time"
)

// LocalRange is the persisted form of an optimistic reservation.
type LocalRange struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (l LocalRange) Range() (DateRange, bool) {
	r, ok := NewRange(l.ID, l.StartDate, l.EndDate, l.Status)
	if !ok {
		return DateRange{}, false
	}
	r.Local = true
	return r, true
}

// LocalCache maps a tool id to reservations made from this client that the
// server may not list yet. Keys are decimal tool ids so the JSON form is a
// plain object.
type LocalCache map[string][]LocalRange

func toolKey(toolID int64) string {
	return strconv.FormatInt(toolID, 10)
}

// RentalID is the cache id for a server rental, so a cached reservation can be
// matched once the server lists it.
func RentalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func (c LocalCache) For(toolID int64) []LocalRange {
	if c == nil {
		return nil
	}
	return c[toolKey(toolID)]
}

// WithReservation returns a copy of c with r appended for toolID.
func (c LocalCache) WithReservation(toolID int64, r DateRange) LocalCache {
	next := c.clone()
	key := toolKey(toolID)
	status := r.Status
	if status == "" {
		status = "PENDING"
	}
	next[key] = append(next[key], LocalRange{
		ID:        r.ID,
		StartDate: r.Start.Format(dateLayout),
		EndDate:   r.End.Format(dateLayout),
		Status:    status,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return next
}

// Without returns a copy of c without the reservation id for toolID.
func (c LocalCache) Without(toolID int64, id string) (LocalCache, bool) {
	next := c.clone()
	key := toolKey(toolID)
	ranges := next[key]
	kept := make([]LocalRange, 0, len(ranges))
	removed := false
	for _, r := range ranges {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		delete(next, key)
	} else {
		next[key] = kept
	}
	return next, removed
}

// Prune returns a copy of c without ranges that ended before now or cannot be parsed.
func (c LocalCache) Prune(now time.Time) LocalCache {
	today := Day(now)
	next := LocalCache{}
	for key, ranges := range c {
		kept := []LocalRange{}
		for _, l := range ranges {
			r, ok := l.Range()
			if !ok || r.End.Before(today) {
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) > 0 {
			next[key] = kept
		}
	}
	return next
}

// ToolIDs lists the tools that have cached reservations, ascending.
func (c LocalCache) ToolIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for key := range c {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c LocalCache) clone() LocalCache {
	next := make(LocalCache, len(c)+1)
	for key, ranges := range c {
		next[key] = append([]LocalRange(nil), ranges...)
	}
	return next
}
