package quiz

import (
	"regexp"
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/outline"
	"study-assistant-workers/internal/study/payload"
)

type State string

const (
	StateScanning   State = "SCANNING"
	StateInQuestion State = "IN_QUESTION"
)

var (
	questionPattern    = regexp.MustCompile(`(?i)^(?:câu(?:\s+hỏi)?|question|q)\s*(\d+)\s*[:.)]\s*(.*)$`)
	optionPattern      = regexp.MustCompile(`^([A-Ha-h])[.)]\s+(.*)$`)
	answerPattern      = regexp.MustCompile(`(?i)^(?:đáp\s+án(?:\s+đúng)?|correct\s+answer|answer)\s*:\s*(.*)$`)
	explanationPattern = regexp.MustCompile(`(?i)^(?:giải\s+thích|explanation)\s*:\s*(.*)$`)
)

type section int

const (
	sectionQuestion section = iota
	sectionOptions
	sectionExplanation
)

type draft struct {
	question    []string
	options     []string
	letters     []byte
	answer      string
	explanation []string
}

func (d *draft) build() (models.QuizQuestion, bool) {
	question := strings.TrimSpace(strings.Join(d.question, " "))
	if question == "" || len(d.options) < 2 || d.answer == "" {
		return models.QuizQuestion{}, false
	}
	index, ok := ResolveAnswer(d.answer, d.options, d.letters)
	if !ok {
		return models.QuizQuestion{}, false
	}
	return models.QuizQuestion{
		Question:           question,
		Options:            d.options,
		CorrectOptionIndex: index,
		Explanation:        strings.TrimSpace(strings.Join(d.explanation, " ")),
	}, true
}

// Accumulator collects "Câu n:" / "Question n:" blocks with lettered
// options and an answer line. A block is flushed on the next question
// header or at end of input and kept only when it resolves to a complete
// question.
type Accumulator struct {
	state   State
	section section
	current *draft
	emitted []models.QuizQuestion
}

func NewAccumulator() *Accumulator {
	return &Accumulator{state: StateScanning, emitted: []models.QuizQuestion{}}
}

func (a *Accumulator) State() State { return a.state }

func (a *Accumulator) Feed(line string) {
	b := bare(line)
	if b == "" {
		return
	}

	if m := questionPattern.FindStringSubmatch(b); m != nil {
		a.flush()
		a.state = StateInQuestion
		a.section = sectionQuestion
		a.current = &draft{}
		if text := strings.TrimSpace(m[2]); text != "" {
			a.current.question = append(a.current.question, outline.StripEmphasis(text))
		}
		return
	}

	if a.state != StateInQuestion {
		return
	}

	if m := optionPattern.FindStringSubmatch(b); m != nil && a.section != sectionExplanation {
		a.section = sectionOptions
		a.current.letters = append(a.current.letters, strings.ToUpper(m[1])[0])
		a.current.options = append(a.current.options, outline.StripEmphasis(m[2]))
		return
	}

	if m := answerPattern.FindStringSubmatch(b); m != nil {
		a.current.answer = strings.TrimSpace(m[1])
		a.section = sectionOptions
		return
	}

	if m := explanationPattern.FindStringSubmatch(b); m != nil {
		a.section = sectionExplanation
		if text := strings.TrimSpace(m[1]); text != "" {
			a.current.explanation = append(a.current.explanation, text)
		}
		return
	}

	text := outline.StripEmphasis(b)
	switch a.section {
	case sectionQuestion:
		a.current.question = append(a.current.question, text)
	case sectionOptions:
		if n := len(a.current.options); n > 0 && a.current.answer == "" {
			a.current.options[n-1] += " " + text
		}
	case sectionExplanation:
		a.current.explanation = append(a.current.explanation, text)
	}
}

func (a *Accumulator) flush() {
	if a.current != nil {
		if q, ok := a.current.build(); ok {
			a.emitted = append(a.emitted, q)
		}
	}
	a.current = nil
	a.section = sectionQuestion
	a.state = StateScanning
}

// Finish flushes the open block and returns every emitted question.
func (a *Accumulator) Finish() []models.QuizQuestion {
	a.flush()
	return a.emitted
}

// FromText runs the question pass over free text.
func FromText(text string) []models.QuizQuestion {
	acc := NewAccumulator()
	for _, l := range strings.Split(payload.Clean(text), "\n") {
		acc.Feed(l)
	}
	return acc.Finish()
}

func bare(line string) string {
	s := strings.ReplaceAll(strings.TrimSpace(line), "**", "")
	s = strings.TrimLeft(s, "#>-*• \t")
	return strings.TrimSpace(s)
}
