package entity

// UserProfile is captured once per schedule session and fed to the schedule prompt.
type UserProfile struct {
	Name     string `json:"name"`
	FreeTime string `json:"freeTime"` // free-text availability, e.g. "weekday evenings after 6pm"
}
