// internal/workers/study-tools/record-progress/models.go
package recordprogress

import (
	"time"

	"study-assistant-workers/internal/models"
)

// Input takes the artifact produced by normalize-response. When the
// artifact is absent the raw backend body is normalized as progress.
type Input struct {
	RequestID   string           `json:"requestId,omitempty"`
	UserID      string           `json:"userId"`
	Artifact    *models.Artifact `json:"artifact,omitempty"`
	RawResponse interface{}      `json:"rawResponse,omitempty"`
}

type Output struct {
	SnapshotID       string    `json:"snapshotId,omitempty"`
	UserID           string    `json:"userId"`
	SubjectsRecorded int       `json:"subjectsRecorded"`
	Summary          []string  `json:"progressSummary"`
	RecordedAt       time.Time `json:"recordedAt"`
}
