package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/study-planner/internal/entity"
)

// Forms the model returns for start/end. Zone-less forms are wall-clock
// times in the local zone.
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05-0700", true},
	{"2006-01-02T15:04-07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// ParseTime parses an ISO-8601 date-time as produced in a schedule.
func ParseTime(s string) (time.Time, error) {
	t, _, err := parseTime(s)
	return t, err
}

// parseTime also reports whether s carried a zone or offset.
func parseTime(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l.layout, s, time.Local); err == nil {
			return t, l.zoned, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date-time %q", s)
}

// OrderViolations returns the indices of events whose start is after
// their end. Events with unparseable times are skipped.
func OrderViolations(events []entity.ScheduleEvent) []int {
	var out []int
	for i, e := range events {
		start, err := ParseTime(e.Start)
		if err != nil {
			continue
		}
		end, err := ParseTime(e.End)
		if err != nil {
			continue
		}
		if start.After(end) {
			out = append(out, i)
		}
	}
	return out
}

// SortByStart returns a copy of events in start order. Ties and events
// with unparseable starts keep their relative order, the latter last.
func SortByStart(events []entity.ScheduleEvent) []entity.ScheduleEvent {
	type keyed struct {
		e  entity.ScheduleEvent
		t  time.Time
		ok bool
	}
	ks := make([]keyed, len(events))
	for i, e := range events {
		t, err := ParseTime(e.Start)
		ks[i] = keyed{e: e, t: t, ok: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].ok && ks[i].t.Before(ks[j].t)
	})
	out := make([]entity.ScheduleEvent, len(ks))
	for i, k := range ks {
		out[i] = k.e
	}
	return out
}

// Day is one cell of a month page.
type Day struct {
	Date   time.Time
	Events []entity.ScheduleEvent
}

// Month is one page of the overview. Lead is the number of blank cells
// before the 1st in a Sunday-first week row.
type Month struct {
	Year  int
	Month time.Month
	Lead  int
	Days  []Day
}

// Title renders the page heading, e.g. "October 2024".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Overview lays events out on month pages, from the month of the earliest
// start to the month of the latest, with each day's events in start order.
// Events whose start does not parse are left out.
func Overview(events []entity.ScheduleEvent) []Month {
	sorted := SortByStart(events)

	byDay := map[string][]entity.ScheduleEvent{}
	var first, last time.Time
	for _, e := range sorted {
		t, err := ParseTime(e.Start)
		if err != nil {
			continue
		}
		key := t.Format("2006-01-02")
		byDay[key] = append(byDay[key], e)
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if first.IsZero() {
		return nil
	}

	var months []Month
	cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.Local)
	for !cur.After(end) {
		m := Month{Year: cur.Year(), Month: cur.Month(), Lead: int(cur.Weekday())}
		for d := cur; d.Month() == cur.Month(); d = d.AddDate(0, 0, 1) {
			m.Days = append(m.Days, Day{Date: d, Events: byDay[d.Format("2006-01-02")]})
		}
		months = append(months, m)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
