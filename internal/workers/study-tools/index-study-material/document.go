// internal/workers/study-tools/index-study-material/document.go
package indexstudymaterial

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/normalize"
	"study-assistant-workers/internal/study/outline"
	"study-assistant-workers/internal/study/progress"
)

var sourceKeys = []string{"title", "source", "file", "filename", "name"}

// documentID is stable for a (user, action, content) triple so re-indexing
// the same material overwrites instead of duplicating.
func documentID(userID string, a models.Artifact, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(userID+"\x00"+string(a.Action)+"\x00"+content)).String()
}

func title(a models.Artifact) string {
	t := a.Title
	switch {
	case t != "":
	case a.Kind == models.KindFlashcards && len(a.Flashcards) > 0:
		t = a.Flashcards[0].Term
	case a.Kind == models.KindQuiz && a.Quiz != nil && len(a.Quiz.Questions) > 0:
		t = a.Quiz.Questions[0].Question
	case a.Kind == models.KindFormattedText && a.Quiz != nil:
		t = outline.Title(a.Quiz.Outline)
	case a.Kind == models.KindOutline || a.Kind == models.KindMindMap:
		t = outline.Title(a.Outline)
	}
	if t == "" {
		return string(a.Action)
	}
	return t
}

// content flattens an artifact into plain text for full-text search.
func content(a models.Artifact) string {
	var b strings.Builder

	switch a.Kind {
	case models.KindFlashcards:
		for _, c := range a.Flashcards {
			fmt.Fprintf(&b, "%s: %s\n", c.Term, c.Definition)
		}

	case models.KindQuiz:
		if a.Quiz == nil {
			break
		}
		for i, q := range a.Quiz.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
			for j, opt := range q.Options {
				marker := " "
				if j == q.CorrectOptionIndex {
					marker = "*"
				}
				fmt.Fprintf(&b, "%s %c. %s\n", marker, 'A'+rune(j), opt)
			}
			if q.Explanation != "" {
				b.WriteString(q.Explanation + "\n")
			}
		}

	case models.KindFormattedText:
		if a.Quiz != nil {
			b.WriteString(outline.Markdown(a.Quiz.Outline))
		}

	case models.KindOutline, models.KindMindMap:
		if a.Markdown != "" {
			b.WriteString(a.Markdown)
		} else {
			b.WriteString(outline.Markdown(a.Outline))
		}

	case models.KindProgress:
		if a.Progress != nil {
			b.WriteString(strings.Join(progress.Lines(a.Progress.Subjects), "\n"))
			if a.Progress.Message != "" {
				b.WriteString("\n" + a.Progress.Message)
			}
		}

	case models.KindStats:
		if a.Stats == nil {
			break
		}
		lines := progress.Lines(a.Stats.Subjects)
		for _, d := range a.Stats.Documents {
			lines = append(lines, d.Name)
		}
		for _, act := range a.Stats.RecentActivities {
			lines = append(lines, normalize.Describe(act))
		}
		lines = append(lines, a.Stats.Recommendations...)
		b.WriteString(strings.Join(lines, "\n"))

	default:
		b.WriteString(a.Text)
	}

	return strings.TrimSpace(b.String())
}

func sourceNames(sources []map[string]interface{}) []string {
	var out []string
	for _, src := range sources {
		for _, k := range sourceKeys {
			if s, ok := src[k].(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
				break
			}
		}
	}
	return out
}
