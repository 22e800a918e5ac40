// internal/models/progress.go
package models

import "time"

type ProgressKind string

const (
	ProgressKindSubjects       ProgressKind = "subjects"
	ProgressKindSuccessMessage ProgressKind = "successMessage"
)

type SubjectProgress struct {
	Subject         string     `json:"subject"`
	ProgressPercent int        `json:"progressPercent"`
	LastUpdatedAt   *time.Time `json:"lastUpdatedAt,omitempty"`
}

// Progress is either a subject map or a confirmation that an update was
// applied. A confirmation also reports the subject and value it names.
type Progress struct {
	Kind            ProgressKind               `json:"kind"`
	Subjects        map[string]SubjectProgress `json:"subjects"`
	Message         string                     `json:"message,omitempty"`
	Subject         string                     `json:"subject,omitempty"`
	ProgressPercent int                        `json:"progressPercent,omitempty"`
}

// ProgressUpdate is the object form of a progress write sent to the backend.
type ProgressUpdate struct {
	Subject  string `json:"subject"`
	Progress int    `json:"progress"`
}
