// internal/models/quiz.go
package models

type QuizKind string

const (
	QuizKindQuestions     QuizKind = "questions"
	QuizKindFormattedText QuizKind = "formattedText"
)

// QuizQuestion carries a 0-based CorrectOptionIndex into Options.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Quiz holds either interactive questions or, when no question structure
// was found, the outline of the source text.
type Quiz struct {
	Kind      QuizKind       `json:"kind"`
	Questions []QuizQuestion `json:"questions,omitempty"`
	Outline   []OutlineNode  `json:"outline,omitempty"`
}
