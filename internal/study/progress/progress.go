// internal/study/progress/progress.go
package progress

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
)

var successPattern = regexp.MustCompile(`(?i)(?:đã\s+(?:tạo\s+và\s+)?cập\s+nhật\s+tiến\s+độ\s+cho|progress\s+updated\s+for)\s+(.+?)\s*:\s*(\d+(?:\.\d+)?)\s*%`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract returns the progress carried by p: a subject map, or a
// success message when p is an update confirmation. It never fails;
// unreadable input yields an empty subject map.
func Extract(p payload.Payload) models.Progress {
	if !p.IsText() {
		if list, ok := p.List(); ok {
			return subjectsResult(fromList(list))
		}
		obj, _ := p.Object()
		return subjectsResult(FromObject(obj))
	}

	if m := successPattern.FindStringSubmatch(p.Text); m != nil {
		percent, _ := parsePercent(m[2])
		return models.Progress{
			Kind:            models.ProgressKindSuccessMessage,
			Subjects:        map[string]models.SubjectProgress{},
			Message:         strings.TrimSpace(p.Text),
			Subject:         cleanSubject(m[1]),
			ProgressPercent: percent,
		}
	}

	return subjectsResult(FromText(p.Text))
}

func subjectsResult(subjects map[string]models.SubjectProgress) models.Progress {
	return models.Progress{Kind: models.ProgressKindSubjects, Subjects: subjects}
}

// FromObject applies the object strategies in order: "subjects", then
// "data.subjects", then top-level numeric or {progress} values. The first
// strategy whose shape is present wins, even if it yields no entries.
func FromObject(obj map[string]interface{}) map[string]models.SubjectProgress {
	if subjects, ok := Subjects(obj["subjects"]); ok {
		return subjects
	}
	if data, ok := obj["data"].(map[string]interface{}); ok {
		if subjects, ok := Subjects(data["subjects"]); ok {
			return subjects
		}
	}

	return fromMap(obj)
}

// Subjects reads a subject map or a [{subject, progress}] list.
func Subjects(v interface{}) (map[string]models.SubjectProgress, bool) {
	switch s := v.(type) {
	case map[string]interface{}:
		return fromMap(s), true
	case []interface{}:
		return fromList(s), true
	}
	return nil, false
}

// fromMap reads {subject: value} objects. Keys are visited in sorted order
// so that two keys trimming to the same subject always resolve to the
// later one.
func fromMap(m map[string]interface{}) map[string]models.SubjectProgress {
	out := map[string]models.SubjectProgress{}
	for _, key := range sortedKeys(m) {
		subject := strings.TrimSpace(key)
		if subject == "" {
			continue
		}
		if sp, ok := entry(subject, m[key]); ok {
			out[subject] = sp
		}
	}
	return out
}

// fromList reads [{subject, progress, ...}] arrays.
func fromList(list []interface{}) map[string]models.SubjectProgress {
	out := map[string]models.SubjectProgress{}
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		raw, _ := payload.Field(m, "subject", "name")
		subject, _ := payload.Str(raw)
		if subject == "" {
			continue
		}
		if sp, ok := entry(subject, m); ok {
			out[subject] = sp
		}
	}
	return out
}

// entry reads a bare number or an object with a progress field.
func entry(subject string, v interface{}) (models.SubjectProgress, bool) {
	if f, ok := payload.Number(v, false); ok {
		return models.SubjectProgress{Subject: subject, ProgressPercent: Clamp(f)}, true
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return models.SubjectProgress{}, false
	}
	raw, ok := payload.Field(m, "progress", "progressPercent", "percent")
	if !ok {
		return models.SubjectProgress{}, false
	}
	f, ok := payload.Number(raw, true)
	if !ok {
		return models.SubjectProgress{}, false
	}

	sp := models.SubjectProgress{Subject: subject, ProgressPercent: Clamp(f)}
	if ts, ok := payload.Field(m, "progress_updated_at", "lastUpdatedAt", "updated_at"); ok {
		if s, ok := ts.(string); ok {
			sp.LastUpdatedAt = ParseTimestamp(s)
		}
	}
	return sp, true
}

// Clamp rounds f to the nearest integer within [0, 100].
func Clamp(f float64) int {
	r := math.Round(f)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

// ParseTimestamp accepts RFC 3339 and the naive layouts the backend writes.
// Naive values are read as UTC. Unparseable values yield nil.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FormatUpdate renders the text form of a progress write.
func FormatUpdate(subject string, percent int) string {
	return fmt.Sprintf("%s: %d", strings.TrimSpace(subject), percent)
}

// UpdateRequest is the object form of a progress write.
func UpdateRequest(subject string, percent int) models.ProgressUpdate {
	return models.ProgressUpdate{Subject: strings.TrimSpace(subject), Progress: percent}
}

// Lines renders subjects as "- subject: n%" lines sorted by subject.
func Lines(subjects map[string]models.SubjectProgress) []string {
	names := Names(subjects)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: %d%%", name, subjects[name].ProgressPercent))
	}
	return lines
}

// Names returns the subject keys in sorted order.
func Names(subjects map[string]models.SubjectProgress) []string {
	return sortedKeys(subjects)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
