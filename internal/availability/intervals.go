package availability

import (
	"sort"
	"time"

	"booking-service/internal/models"
)

// interval is a half-open [start, end) range of absolute time.
type interval struct {
	start time.Time
	end   time.Time
}

// workingIntervals returns the individual's working hours that overlap [from, to).
// Intervals are left whole so the slot grid always starts at the business-local
// opening time. Each local date is rebuilt with time.Date in the individual's zone,
// so DST shifts move the absolute instants and keep the wall-clock hours.
func workingIntervals(ind models.Individual, from, to time.Time) []interval {
	loc := ind.Location
	first := models.DateOf(from.In(loc)).AddDays(-1)
	last := models.DateOf(to.In(loc)).AddDays(1)

	var out []interval
	for d := first; !dateAfter(d, last); d = d.AddDays(1) {
		w, ok := ind.Hours[d.Weekday()]
		if !ok {
			continue
		}
		s := time.Date(d.Year, d.Month, d.Day, w.Start/60, w.Start%60, 0, 0, loc)
		e := time.Date(d.Year, d.Month, d.Day, w.End/60, w.End%60, 0, 0, loc)
		if s.Before(e) && s.Before(to) && e.After(from) {
			out = append(out, interval{start: s, end: e})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start.Before(out[j].start) })
	return out
}

func dateAfter(a, b models.Date) bool {
	return a.Midnight(time.UTC).After(b.Midnight(time.UTC))
}

// intersect returns the instants covered by both sorted interval lists.
func intersect(a, b []interval) []interval {
	var out []interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		s := later(a[i].start, b[j].start)
		e := earlier(a[i].end, b[j].end)
		if s.Before(e) {
			out = append(out, interval{start: s, end: e})
		}
		if a[i].end.Before(b[j].end) {
			i++
		} else {
			j++
		}
	}
	return out
}

func covers(ivs []interval, start, end time.Time) bool {
	for _, iv := range ivs {
		if !start.Before(iv.start) && !end.After(iv.end) {
			return true
		}
	}
	return false
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
