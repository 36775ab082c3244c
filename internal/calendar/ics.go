package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/study-planner/internal/entity"
)

const (
	productID = "-//study-planner//schedule//EN"
	uidSuffix = "@study-planner"

	// floating local time; the schedule carries no zone
	floatingLayout = "20060102T150405"
)

// Report describes the shape of an iCalendar document.
type Report struct {
	Envelope      bool     // starts with BEGIN:VCALENDAR and ends with END:VCALENDAR
	Parsed        bool     // accepted by the parser
	Events        int      // VEVENT count
	MissingUID    int      // VEVENTs without a UID
	DuplicateUIDs []string // UIDs that occur more than once
}

// Valid reports whether the document is a well-formed export: envelope
// present, parsed, every VEVENT has a unique UID.
func (r Report) Valid() bool {
	return r.Envelope && r.Parsed && r.MissingUID == 0 && len(r.DuplicateUIDs) == 0
}

// Normalized is the outcome of Normalize.
type Normalized struct {
	ICal         string
	Rebuilt      bool
	UIDsAssigned int
	Warnings     []string
}

// Inspect parses raw and reports on its envelope, events and UIDs.
func Inspect(raw string) Report {
	trimmed := strings.TrimSpace(raw)
	rep := Report{Envelope: hasEnvelope(trimmed)}

	cal, err := ical.ParseCalendar(strings.NewReader(trimmed))
	if err != nil {
		return rep
	}
	rep.Parsed = true

	seen := map[string]int{}
	for _, ev := range cal.Events() {
		rep.Events++
		uid := eventUID(ev)
		if uid == "" {
			rep.MissingUID++
			continue
		}
		seen[uid]++
		if seen[uid] == 2 {
			rep.DuplicateUIDs = append(rep.DuplicateUIDs, uid)
		}
	}
	return rep
}

// Normalize repairs a model-authored calendar so that it can be exported:
// VEVENTs with a missing or repeated UID get a fresh one. A document that
// does not parse or lacks the VCALENDAR envelope is rebuilt from events.
// A VEVENT count that differs from len(events) is reported, not fixed.
func Normalize(raw string, events []entity.ScheduleEvent, now time.Time) (Normalized, error) {
	trimmed := strings.TrimSpace(raw)

	var cal *ical.Calendar
	if hasEnvelope(trimmed) {
		if parsed, err := ical.ParseCalendar(strings.NewReader(trimmed)); err == nil {
			cal = parsed
		}
	}
	if cal == nil {
		rebuilt, err := Build(events, now)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{
			ICal:     rebuilt,
			Rebuilt:  true,
			Warnings: []string{"calendar was not a valid iCalendar document and was rebuilt from the schedule"},
		}, nil
	}

	out := Normalized{ICal: trimmed}
	seen := map[string]struct{}{}
	vevents := cal.Events()
	for _, ev := range vevents {
		uid := eventUID(ev)
		if _, dup := seen[uid]; uid != "" && !dup {
			seen[uid] = struct{}{}
			continue
		}
		fresh := uuid.NewString() + uidSuffix
		ev.SetProperty(ical.ComponentPropertyUniqueId, fresh)
		seen[fresh] = struct{}{}
		out.UIDsAssigned++
	}
	if out.UIDsAssigned > 0 {
		out.ICal = strings.TrimSpace(cal.Serialize())
		out.Warnings = append(out.Warnings, fmt.Sprintf("assigned %d missing or duplicate event UIDs", out.UIDsAssigned))
	}
	if len(vevents) != len(events) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("calendar has %d events but the schedule has %d", len(vevents), len(events)))
	}
	return out, nil
}

// Build renders events as an iCalendar document with one VEVENT per event
// and a fresh UID on each.
func Build(events []entity.ScheduleEvent, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for i, e := range events {
		start, startZoned, err := parseTime(e.Start)
		if err != nil {
			return "", fmt.Errorf("event %d %q: start: %w", i, e.Title, err)
		}
		end, endZoned, err := parseTime(e.End)
		if err != nil {
			return "", fmt.Errorf("event %d %q: end: %w", i, e.Title, err)
		}

		ev := cal.AddEvent(uuid.NewString() + uidSuffix)
		ev.SetDtStampTime(now)
		// zoned times are written in UTC, zone-less ones stay floating
		if startZoned {
			ev.SetStartAt(start)
		} else {
			ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
		}
		if endZoned {
			ev.SetEndAt(end)
		} else {
			ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(floatingLayout))
		}
		ev.SetSummary(e.Title)
	}
	return strings.TrimSpace(cal.Serialize()), nil
}

func hasEnvelope(s string) bool {
	return strings.HasPrefix(s, "BEGIN:VCALENDAR") && strings.HasSuffix(s, "END:VCALENDAR")
}

func eventUID(ev *ical.VEvent) string {
	p := ev.GetProperty(ical.ComponentPropertyUniqueId)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}
