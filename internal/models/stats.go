// internal/models/stats.go
package models

import "time"

type Stats struct {
	Subjects         map[string]SubjectProgress `json:"subjects"`
	CompletedQuizzes int                        `json:"completedQuizzes"`
	ChatHistoryCount int                        `json:"chatHistoryCount"`
	TotalDocuments   int                        `json:"totalDocuments"`
	Documents        []Document                 `json:"documents,omitempty"`
	RecentActivities []Activity                 `json:"recentActivities,omitempty"`
	Recommendations  []string                   `json:"recommendations,omitempty"`
}

type Document struct {
	Name    string `json:"name"`
	Subject string `json:"subject,omitempty"`
}

type Activity struct {
	Action          string     `json:"action"`
	Subject         string     `json:"subject,omitempty"`
	Document        string     `json:"document,omitempty"`
	Progress        int        `json:"progress,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
}

func (s Stats) IsEmpty() bool {
	return len(s.Subjects) == 0 &&
		s.CompletedQuizzes == 0 &&
		s.ChatHistoryCount == 0 &&
		s.TotalDocuments == 0 &&
		len(s.RecentActivities) == 0 &&
		len(s.Recommendations) == 0
}
