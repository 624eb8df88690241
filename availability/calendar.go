package availability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"toolrent-cli/api"
)

const (
	markApproved = 'x'
	markPending  = '*'
	markToday    = '>'
)

// BlockedDays maps each day of the month to the status blocking it.
// APPROVED wins when an approved and a pending range share a day.
func BlockedDays(ranges []DateRange, year int, month time.Month) map[int]string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	days := map[int]string{}
	for _, r := range ranges {
		if r.End.Before(first) || r.Start.After(last) {
			continue
		}
		from := r.Start
		if from.Before(first) {
			from = first
		}
		to := r.End
		if to.After(last) {
			to = last
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if days[d.Day()] == api.StatusApproved {
				continue
			}
			days[d.Day()] = r.Status
		}
	}
	return days
}

// RenderMonth writes a Monday-first text calendar. Approved days carry an x,
// pending days a *, and today is prefixed with >.
func RenderMonth(w io.Writer, year int, month time.Month, ranges []DateRange, today time.Time) error {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	blocked := BlockedDays(ranges, year, month)
	today = Day(today)

	var b strings.Builder
	title := fmt.Sprintf("%s %d", month, year)
	pad := (28 - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(" Mo  Tu  We  Th  Fr  Sa  Su\n")

	offset := (int(first.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat("    ", offset))
	col := offset
	for day := 1; day <= daysInMonth; day++ {
		lead := ' '
		if today.Year() == year && today.Month() == month && today.Day() == day {
			lead = markToday
		}
		trail := ' '
		switch blocked[day] {
		case api.StatusApproved:
			trail = markApproved
		case api.StatusPending:
			trail = markPending
		}
		fmt.Fprintf(&b, "%c%2d%c", lead, day, trail)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
