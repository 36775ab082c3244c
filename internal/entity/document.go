package entity

import "github.com/joseph-ayodele/study-planner/constants"

// Document represents an uploaded syllabus or transcript.
type Document struct {
	Name string `json:"name"` // includes the extension used for format dispatch
	Data []byte `json:"-"`
}

// Ext returns the normalized extension of the document name.
func (d Document) Ext() string {
	return constants.ExtOf(d.Name)
}
