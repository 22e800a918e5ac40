// internal/study/normalize/normalize.go
package normalize

import (
	"errors"
	"fmt"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/flashcard"
	"study-assistant-workers/internal/study/outline"
	"study-assistant-workers/internal/study/payload"
	"study-assistant-workers/internal/study/progress"
	"study-assistant-workers/internal/study/quiz"
)

var ErrUnsupportedAction = errors.New("UNSUPPORTED_ACTION")

// documentKeys hold the prose of outline-shaped actions when the backend
// answers with an object instead of text.
var documentKeys = []string{"content", "text", "summary", "plan", "explanation", "markdown"}

// Normalize unwraps raw once and extracts the artifact for action. The
// only error is ErrUnsupportedAction; every extraction is total.
func Normalize(action string, raw interface{}) (models.Artifact, error) {
	a, ok := models.ParseAction(action)
	if !ok {
		return models.Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}
	return NormalizePayload(a, payload.Unwrap(raw)), nil
}

// NormalizePayload dispatches an already unwrapped payload.
func NormalizePayload(action models.Action, p payload.Payload) models.Artifact {
	artifact := models.Artifact{Action: action}

	switch action {
	case models.ActionFlashcards:
		artifact.Kind = models.KindFlashcards
		artifact.Flashcards = flashcard.Extract(p)

	case models.ActionQuiz:
		q := quiz.Extract(p)
		artifact.Kind = models.KindQuiz
		if q.Kind == models.QuizKindFormattedText {
			artifact.Kind = models.KindFormattedText
		}
		artifact.Quiz = &q

	case models.ActionProgress:
		pr := progress.Extract(p)
		artifact.Kind = models.KindProgress
		artifact.Progress = &pr

	case models.ActionStats:
		st := ExtractStats(p)
		artifact.Kind = models.KindStats
		artifact.Stats = &st

	case models.ActionStudyPlan, models.ActionConcept, models.ActionSummary:
		artifact.Kind = models.KindOutline
		fillOutline(&artifact, documentText(p))

	case models.ActionMindMap:
		artifact.Kind = models.KindMindMap
		fillOutline(&artifact, documentText(p))
		artifact.Markdown = outline.Markdown(artifact.Outline)

	default:
		artifact.Kind = models.KindText
		artifact.Text = p.String()
	}

	return artifact
}

func fillOutline(a *models.Artifact, text string) {
	a.Outline = outline.FromText(text)
	a.Title = outline.Title(a.Outline)
}

func documentText(p payload.Payload) string {
	if obj, ok := p.Object(); ok {
		for _, k := range documentKeys {
			if s, ok := payload.Str(obj[k]); ok && s != "" {
				return s
			}
		}
	}
	return p.String()
}
