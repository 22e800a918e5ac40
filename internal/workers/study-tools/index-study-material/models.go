// internal/workers/study-tools/index-study-material/models.go
package indexstudymaterial

import (
	"time"

	"study-assistant-workers/internal/models"
)

// Input accepts a single artifact from normalize-response or a batch.
type Input struct {
	RequestID string                   `json:"requestId,omitempty"`
	UserID    string                   `json:"userId"`
	Artifact  *models.Artifact         `json:"artifact,omitempty"`
	Artifacts []models.Artifact        `json:"artifacts,omitempty"`
	Sources   []map[string]interface{} `json:"sources,omitempty"`
}

// StudyDocument is the searchable form of an artifact.
type StudyDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RequestID string    `json:"request_id,omitempty"`
	Action    string    `json:"action"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	IndexedAt time.Time `json:"indexed_at"`
}

type Output struct {
	IndexName   string   `json:"indexName"`
	DocumentIDs []string `json:"documentIds"`
	Indexed     int      `json:"indexed"`
	Skipped     int      `json:"skipped"`
}
