package calendar_test

import (
	"strings"
	"testing"
	"time"

	eical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/study-planner/internal/calendar"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

var now = time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)

func schedule() []entity.ScheduleEvent {
	return []entity.ScheduleEvent{
		{Title: "Study: CS 101 Final", Start: "2024-12-10T18:00:00", End: "2024-12-10T20:00:00"},
		{Title: "CS 101 Final", Start: "2024-12-12T17:00:00", End: "2024-12-12T18:00:00"},
	}
}

// decodeEvents parses s with an independent iCalendar implementation.
func decodeEvents(t *testing.T, s string) []*eical.Component {
	t.Helper()
	cal, err := eical.NewDecoder(strings.NewReader(s)).Decode()
	require.NoError(t, err)
	var out []*eical.Component
	for _, c := range cal.Children {
		if c.Name == eical.CompEvent {
			out = append(out, c)
		}
	}
	return out
}

func uids(t *testing.T, comps []*eical.Component) []string {
	t.Helper()
	var out []string
	for _, c := range comps {
		p := c.Props.Get(eical.PropUID)
		require.NotNil(t, p)
		out = append(out, p.Value)
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Run("Given a schedule When Build Then one VEVENT per event with unique UIDs", func(t *testing.T) {
		out, err := calendar.Build(schedule(), now)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
		assert.True(t, strings.HasSuffix(out, "END:VCALENDAR"))

		events := decodeEvents(t, out)
		require.Len(t, events, 2)
		ids := uids(t, events)
		assert.NotEqual(t, ids[0], ids[1])
		assert.Equal(t, "CS 101 Final", events[1].Props.Get(eical.PropSummary).Value)
		assert.Equal(t, "20241212T170000", events[1].Props.Get(eical.PropDateTimeStart).Value)
		assert.True(t, calendar.Inspect(out).Valid())
	})

	t.Run("Given zoned times When Build Then DTSTART and DTEND are written in UTC", func(t *testing.T) {
		zoned := []entity.ScheduleEvent{
			{Title: "Review", Start: "2024-10-05T09:00:00-05:00", End: "2024-10-05T10:30:00-0500"},
			{Title: "Quiz", Start: "2024-10-06T17:00:00Z", End: "2024-10-06T18:00:00"},
		}

		out, err := calendar.Build(zoned, now)

		require.NoError(t, err)
		events := decodeEvents(t, out)
		require.Len(t, events, 2)
		assert.Equal(t, "20241005T140000Z", events[0].Props.Get(eical.PropDateTimeStart).Value)
		assert.Equal(t, "20241005T153000Z", events[0].Props.Get(eical.PropDateTimeEnd).Value)
		assert.Equal(t, "20241006T170000Z", events[1].Props.Get(eical.PropDateTimeStart).Value)
		assert.Equal(t, "20241006T180000", events[1].Props.Get(eical.PropDateTimeEnd).Value)
	})

	t.Run("Given an unparseable start When Build Then fails naming the event", func(t *testing.T) {
		_, err := calendar.Build([]entity.ScheduleEvent{{Title: "Quiz", Start: "next friday", End: "2024-10-05T18:00:00"}}, now)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Quiz")
	})

	t.Run("Given no events When Build Then an empty calendar is still well formed", func(t *testing.T) {
		out, err := calendar.Build(nil, now)

		require.NoError(t, err)
		rep := calendar.Inspect(out)
		assert.True(t, rep.Valid())
		assert.Zero(t, rep.Events)
	})
}

const modelCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//model//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:same@model\r\n" +
	"DTSTAMP:20240902T090000Z\r\n" +
	"DTSTART:20241210T180000\r\n" +
	"DTEND:20241210T200000\r\n" +
	"SUMMARY:Study: CS 101 Final\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:same@model\r\n" +
	"DTSTAMP:20240902T090000Z\r\n" +
	"DTSTART:20241212T170000\r\n" +
	"DTEND:20241212T180000\r\n" +
	"SUMMARY:CS 101 Final\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestNormalize(t *testing.T) {
	t.Run("Given duplicate UIDs When Normalize Then every VEVENT ends up with a unique UID", func(t *testing.T) {
		before := calendar.Inspect(modelCalendar)
		require.Equal(t, []string{"same@model"}, before.DuplicateUIDs)

		out, err := calendar.Normalize(modelCalendar, schedule(), now)

		require.NoError(t, err)
		assert.False(t, out.Rebuilt)
		assert.Equal(t, 1, out.UIDsAssigned)
		events := decodeEvents(t, out.ICal)
		require.Len(t, events, 2)
		ids := uids(t, events)
		assert.Equal(t, "same@model", ids[0])
		assert.NotEqual(t, ids[0], ids[1])
		assert.True(t, calendar.Inspect(out.ICal).Valid())
	})

	t.Run("Given a well-formed calendar When Normalize Then the text is kept as is", func(t *testing.T) {
		good, err := calendar.Build(schedule(), now)
		require.NoError(t, err)

		out, err := calendar.Normalize("\n"+good+"\n\n", schedule(), now)

		require.NoError(t, err)
		assert.Equal(t, good, out.ICal)
		assert.Empty(t, out.Warnings)
	})

	t.Run("Given text without an envelope When Normalize Then it is rebuilt from the schedule", func(t *testing.T) {
		out, err := calendar.Normalize("Sorry, here is your calendar: ...", schedule(), now)

		require.NoError(t, err)
		assert.True(t, out.Rebuilt)
		assert.NotEmpty(t, out.Warnings)
		assert.Len(t, decodeEvents(t, out.ICal), 2)
	})

	t.Run("Given fewer VEVENTs than schedule entries When Normalize Then a warning is reported", func(t *testing.T) {
		single, err := calendar.Build(schedule()[:1], now)
		require.NoError(t, err)

		out, err := calendar.Normalize(single, schedule(), now)

		require.NoError(t, err)
		assert.False(t, out.Rebuilt)
		require.Len(t, out.Warnings, 1)
		assert.Contains(t, out.Warnings[0], "1 events but the schedule has 2")
	})
}

func TestOrderViolations(t *testing.T) {
	t.Run("Given an event whose start is after its end When checked Then its index is reported and nothing changes", func(t *testing.T) {
		events := []entity.ScheduleEvent{
			{Title: "ok", Start: "2024-10-01T10:00:00", End: "2024-10-01T11:00:00"},
			{Title: "backwards", Start: "2024-10-02T12:00:00", End: "2024-10-02T11:00:00"},
			{Title: "garbled", Start: "soon", End: "later"},
		}
		snapshot := append([]entity.ScheduleEvent(nil), events...)

		got := calendar.OrderViolations(events)

		assert.Equal(t, []int{1}, got)
		assert.Equal(t, snapshot, events)
	})
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2024-10-05T17:00:00", "2024-10-05T17:00", "2024-10-05 17:00:00", " 2024-10-05T17:00:00 "} {
		got, err := calendar.ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-10-05 17:00", got.Format("2006-01-02 15:04"), in)
	}

	got, err := calendar.ParseTime("2024-10-05T17:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	got, err = calendar.ParseTime("2024-10-05T17:00:00-0500")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-05 22:00", got.UTC().Format("2006-01-02 15:04"))

	_, err = calendar.ParseTime("Oct 5")
	assert.Error(t, err)
}

func TestSortByStart(t *testing.T) {
	events := []entity.ScheduleEvent{
		{Title: "c", Start: "2024-10-03T09:00:00"},
		{Title: "x", Start: "tbd"},
		{Title: "a", Start: "2024-10-01T09:00:00"},
		{Title: "b", Start: "2024-10-01T09:00:00"},
	}

	got := calendar.SortByStart(events)

	var titles []string
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"a", "b", "c", "x"}, titles)
	assert.Equal(t, "c", events[0].Title)
}

func TestOverview(t *testing.T) {
	t.Run("Given events in October and December When Overview Then three month pages are laid out", func(t *testing.T) {
		events := []entity.ScheduleEvent{
			{Title: "Final", Start: "2024-12-12T17:00:00", End: "2024-12-12T18:00:00"},
			{Title: "Essay", Start: "2024-10-05T17:00:00", End: "2024-10-05T18:00:00"},
			{Title: "Study", Start: "2024-10-05T09:00:00", End: "2024-10-05T11:00:00"},
		}

		months := calendar.Overview(events)

		require.Len(t, months, 3)
		assert.Equal(t, "October 2024", months[0].Title())
		assert.Equal(t, "November 2024", months[1].Title())
		assert.Equal(t, "December 2024", months[2].Title())
		assert.Equal(t, 2, months[0].Lead) // 2024-10-01 is a Tuesday
		require.Len(t, months[0].Days, 31)
		day5 := months[0].Days[4]
		require.Len(t, day5.Events, 2)
		assert.Equal(t, "Study", day5.Events[0].Title)
		assert.Equal(t, "Essay", day5.Events[1].Title)
		assert.Len(t, months[1].Days, 30)
	})

	t.Run("Given no parseable events When Overview Then no pages", func(t *testing.T) {
		assert.Nil(t, calendar.Overview([]entity.ScheduleEvent{{Title: "x", Start: "?"}}))
	})
}
