// internal/workers/study-tools/normalize-response/models.go
package normalizeresponse

import "study-assistant-workers/internal/models"

type Input struct {
	RequestID   string      `json:"requestId,omitempty"`
	Action      string      `json:"action"`
	RawResponse interface{} `json:"rawResponse"`
}

type Output struct {
	RequestID string          `json:"requestId,omitempty"`
	Artifact  models.Artifact `json:"artifact"`
	Kind      string          `json:"artifactKind"`
	ItemCount int             `json:"itemCount"`
	Empty     bool            `json:"empty"`
	Cached    bool            `json:"cached"`
}
