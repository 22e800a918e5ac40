// internal/workers/study-tools/format-progress-update/models.go
package formatprogressupdate

import "study-assistant-workers/internal/models"

// Input is either an explicit subject and percentage or a free-form
// message such as "Toán: 45" or "Toán: 45%".
type Input struct {
	Subject  string   `json:"subject,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Output carries both write forms the backend accepts. Input is the
// string sent as the tool input of a progress action.
type Output struct {
	Subject  string                `json:"subject"`
	Progress int                   `json:"progress"`
	Input    string                `json:"input"`
	Update   models.ProgressUpdate `json:"update"`
}
