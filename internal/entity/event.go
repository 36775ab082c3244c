package entity

// ExtractedEvent is one dated item found in a syllabus.
type ExtractedEvent struct {
	CourseName string `json:"courseName"`
	EventName  string `json:"eventName"`
	Date       string `json:"date"` // YYYY-MM-DD
}

// ScheduleEvent is one entry of the synthesized study schedule.
// Start <= End is expected but never enforced.
type ScheduleEvent struct {
	Title string `json:"title"`
	Start string `json:"start"` // ISO-8601 datetime
	End   string `json:"end"`   // ISO-8601 datetime
}

// Schedule is the schedule synthesis output: the events plus their
// iCalendar rendering, produced by the same model call.
type Schedule struct {
	Schedule []ScheduleEvent `json:"schedule"`
	ICal     string          `json:"ical"`

	// Warnings are problems found while preparing the calendar export.
	Warnings []string `json:"-"`
}
