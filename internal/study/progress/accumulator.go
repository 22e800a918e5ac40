package progress

import (
	"regexp"
	"strconv"
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
)

type State string

const (
	StateScanning State = "SCANNING"
	StateInMatch  State = "IN_MATCH"
)

var (
	matchPattern       = regexp.MustCompile(`([^:,;]+):\s*(\d+(?:\.\d+)?)\s*%`)
	stampPattern       = regexp.MustCompile(`(?i)\(\s*(?:cập\s+nhật\s+lúc|tạo\s+lúc|updated\s+at|created\s+at)\s*:\s*([^)]+)\)`)
	lastUpdatedPattern = regexp.MustCompile(`(?i)^(?:cập\s+nhật\s+lần\s+cuối|last\s+updated)\s*:\s*(.+)$`)
	prefixPattern      = regexp.MustCompile(`(?i)^(?:tiến\s+độ(?:\s+học\s+tập)?\s+(?:cho|của)|progress\s+(?:for|of))\s+`)
	ordinalPattern     = regexp.MustCompile(`^\d+[.)]\s+`)
)

// Accumulator scans text line by line for "Subject: NN%" matches. A later
// match of the same subject overwrites the earlier one. A "last updated"
// line directly after a match stamps that subject.
type Accumulator struct {
	state    State
	last     string
	subjects map[string]models.SubjectProgress
}

func NewAccumulator() *Accumulator {
	return &Accumulator{state: StateScanning, subjects: map[string]models.SubjectProgress{}}
}

func (a *Accumulator) State() State { return a.state }

func (a *Accumulator) Feed(line string) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
	if trimmed == "" {
		return
	}

	if a.state == StateInMatch {
		if m := lastUpdatedPattern.FindStringSubmatch(strings.TrimLeft(trimmed, "-*•+ \t")); m != nil {
			if ts := ParseTimestamp(strings.Trim(m[1], "() ")); ts != nil {
				sp := a.subjects[a.last]
				sp.LastUpdatedAt = ts
				a.subjects[a.last] = sp
			}
			return
		}
	}

	matches := matchPattern.FindAllStringSubmatchIndex(trimmed, -1)
	matched := false
	for i, idx := range matches {
		subject := cleanSubject(trimmed[idx[2]:idx[3]])
		percent, ok := parsePercent(trimmed[idx[4]:idx[5]])
		if subject == "" || !ok {
			continue
		}

		sp := models.SubjectProgress{Subject: subject, ProgressPercent: percent}
		restEnd := len(trimmed)
		if i+1 < len(matches) {
			restEnd = matches[i+1][0]
		}
		if m := stampPattern.FindStringSubmatch(trimmed[idx[1]:restEnd]); m != nil {
			sp.LastUpdatedAt = ParseTimestamp(m[1])
		}

		a.subjects[subject] = sp
		a.last = subject
		matched = true
	}

	if matched {
		a.state = StateInMatch
	} else {
		a.state = StateScanning
	}
}

func (a *Accumulator) Finish() map[string]models.SubjectProgress {
	a.state = StateScanning
	a.last = ""
	return a.subjects
}

// FromText extracts every subject percentage found in text.
func FromText(text string) map[string]models.SubjectProgress {
	acc := NewAccumulator()
	for _, l := range strings.Split(payload.Clean(text), "\n") {
		acc.Feed(l)
	}
	return acc.Finish()
}

// parsePercent accepts integer or decimal percentages within [0, 100].
func parsePercent(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 100 {
		return 0, false
	}
	return Clamp(f), true
}

// cleanSubject removes list markers and a "Tiến độ cho" / "Progress for"
// prefix from a matched subject name.
func cleanSubject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•+#> \t")
	s = ordinalPattern.ReplaceAllString(strings.TrimSpace(s), "")
	s = prefixPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
