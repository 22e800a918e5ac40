// internal/models/action.go
package models

type Action string

const (
	ActionQuiz       Action = "quiz"
	ActionFlashcards Action = "flashcards"
	ActionStudyPlan  Action = "study_plan"
	ActionProgress   Action = "progress"
	ActionConcept    Action = "concept"
	ActionSummary    Action = "summary"
	ActionMindMap    Action = "mindmap"
	ActionStats      Action = "stats"
	ActionChat       Action = "chat"
)

// Actions lists every action the backend tool endpoint understands.
var Actions = []Action{
	ActionQuiz,
	ActionFlashcards,
	ActionStudyPlan,
	ActionProgress,
	ActionConcept,
	ActionSummary,
	ActionMindMap,
	ActionStats,
	ActionChat,
}

func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// ArtifactKind names the shape of a normalized artifact.
type ArtifactKind string

const (
	KindText          ArtifactKind = "text"
	KindFlashcards    ArtifactKind = "flashcards"
	KindQuiz          ArtifactKind = "quiz"
	KindFormattedText ArtifactKind = "formattedText"
	KindOutline       ArtifactKind = "outline"
	KindMindMap       ArtifactKind = "mindmap"
	KindProgress      ArtifactKind = "progress"
	KindStats         ArtifactKind = "stats"
)
