// internal/models/artifact.go
package models

// Artifact is the normalized result of one backend tool response. Exactly
// one of the payload fields is populated, selected by Kind.
type Artifact struct {
	Action     Action        `json:"action"`
	Kind       ArtifactKind  `json:"kind"`
	Text       string        `json:"text,omitempty"`
	Flashcards []Flashcard   `json:"flashcards,omitempty"`
	Quiz       *Quiz         `json:"quiz,omitempty"`
	Outline    []OutlineNode `json:"outline,omitempty"`
	Title      string        `json:"title,omitempty"`
	Markdown   string        `json:"markdown,omitempty"`
	Progress   *Progress     `json:"progress,omitempty"`
	Stats      *Stats        `json:"stats,omitempty"`
}

// IsEmpty reports whether the artifact carries nothing a renderer could show.
func (a Artifact) IsEmpty() bool {
	switch a.Kind {
	case KindFlashcards:
		return len(a.Flashcards) == 0
	case KindQuiz:
		return a.Quiz == nil || len(a.Quiz.Questions) == 0
	case KindFormattedText:
		return a.Quiz == nil || len(a.Quiz.Outline) == 0
	case KindOutline, KindMindMap:
		return len(a.Outline) == 0
	case KindProgress:
		return a.Progress == nil || (len(a.Progress.Subjects) == 0 && a.Progress.Message == "")
	case KindStats:
		return a.Stats == nil || a.Stats.IsEmpty()
	default:
		return a.Text == ""
	}
}
