// internal/workers/study-tools/fetch-tool-response/models.go
package fetchtoolresponse

import "time"

type Input struct {
	RequestID string                 `json:"requestId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	Action    string                 `json:"action"`
	Input     string                 `json:"input"`
	Context   string                 `json:"context,omitempty"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

// ToolRequest is the body posted to the backend tools endpoint.
type ToolRequest struct {
	Action  string                 `json:"action"`
	Input   string                 `json:"input"`
	Context string                 `json:"context,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Output carries the backend body untouched in RawResponse. Sources and
// Metadata are lifted out of the envelope when present.
type Output struct {
	RequestID   string                   `json:"requestId"`
	Action      string                   `json:"action"`
	RawResponse interface{}              `json:"rawResponse"`
	Sources     []map[string]interface{} `json:"sources,omitempty"`
	Metadata    map[string]interface{}   `json:"metadata,omitempty"`
	FetchedAt   time.Time                `json:"fetchedAt"`
}
