// internal/study/normalize/stats.go
package normalize

import (
	"fmt"
	"math"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
	"study-assistant-workers/internal/study/progress"
)

// Activity actions recorded by the backend.
const (
	ActivityUpload         = "upload"
	ActivityUpdateProgress = "update_progress"
	ActivityLearn          = "learn"
	ActivityCreatePlan     = "create_plan"
)

// ExtractStats reads the learning statistics document. Missing or
// malformed fields are left at their zero value.
func ExtractStats(p payload.Payload) models.Stats {
	stats := models.Stats{Subjects: map[string]models.SubjectProgress{}}

	obj, ok := p.Object()
	if !ok {
		if p.IsText() {
			stats.Subjects = progress.FromText(p.Text)
		}
		return stats
	}

	if subjects, ok := progress.Subjects(obj["subjects"]); ok {
		stats.Subjects = subjects
	} else if data, nested := obj["data"].(map[string]interface{}); nested {
		if subjects, ok := progress.Subjects(data["subjects"]); ok {
			stats.Subjects = subjects
		}
	}

	stats.CompletedQuizzes = count(obj["completed_quizzes"])
	stats.ChatHistoryCount = count(obj["chat_history_count"])

	if docs, ok := obj["documents"].([]interface{}); ok {
		for _, d := range docs {
			if doc, ok := document(d); ok {
				stats.Documents = append(stats.Documents, doc)
			}
		}
	}
	stats.TotalDocuments = count(obj["total_documents"])
	if stats.TotalDocuments == 0 {
		stats.TotalDocuments = len(stats.Documents)
	}

	if acts, ok := obj["recent_activities"].([]interface{}); ok {
		for _, a := range acts {
			if m, ok := a.(map[string]interface{}); ok {
				stats.RecentActivities = append(stats.RecentActivities, activity(m))
			}
		}
	}

	if recs, ok := obj["recommendations"].([]interface{}); ok {
		for _, r := range recs {
			if s, ok := payload.Str(r); ok && s != "" {
				stats.Recommendations = append(stats.Recommendations, s)
			}
		}
	}

	return stats
}

func count(v interface{}) int {
	f, ok := payload.Number(v, true)
	if !ok || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

func document(v interface{}) (models.Document, bool) {
	switch d := v.(type) {
	case string:
		return models.Document{Name: d}, d != ""
	case map[string]interface{}:
		raw, _ := payload.Field(d, "filename", "name", "title")
		name, _ := payload.Str(raw)
		subject, _ := payload.Str(d["subject"])
		return models.Document{Name: name, Subject: subject}, name != ""
	}
	return models.Document{}, false
}

func activity(m map[string]interface{}) models.Activity {
	a := models.Activity{}
	a.Action, _ = payload.Str(m["action"])
	a.Subject, _ = payload.Str(m["subject"])
	a.Document, _ = payload.Str(m["document"])
	if f, ok := payload.Number(m["progress"], true); ok {
		a.Progress = progress.Clamp(f)
	}
	a.DurationMinutes = count(m["duration_minutes"])
	if ts, ok := m["timestamp"].(string); ok {
		a.Timestamp = progress.ParseTimestamp(ts)
	}
	return a
}

// Describe renders the dashboard line for an activity.
func Describe(a models.Activity) string {
	switch a.Action {
	case ActivityUpload:
		s := `Đã tải lên tài liệu "` + a.Document + `"`
		if a.Subject != "" {
			s += " cho môn " + a.Subject
		}
		return s
	case ActivityUpdateProgress:
		return fmt.Sprintf("Cập nhật tiến độ môn %s: %d%%", a.Subject, a.Progress)
	case ActivityLearn:
		s := "Đã học môn " + a.Subject
		if a.DurationMinutes > 0 {
			s += fmt.Sprintf(" (%d phút)", a.DurationMinutes)
		}
		return s
	case ActivityCreatePlan:
		return "Đã tạo kế hoạch học tập cho môn " + a.Subject
	case "":
		return "Hoạt động không xác định"
	default:
		return a.Action
	}
}
