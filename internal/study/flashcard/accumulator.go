package flashcard

import (
	"regexp"
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/outline"
)

type State string

const (
	StateScanning      State = "SCANNING"
	StateInMarkerBlock State = "IN_MARKER_BLOCK"
	StateInBullet      State = "IN_BULLET"
)

type field int

const (
	fieldNone field = iota
	fieldFront
	fieldBack
)

var (
	markerPattern = regexp.MustCompile(`(?i)^flashcard\s*#?\s*\d+\s*[:.)]?\s*(.*)$`)
	frontPattern  = regexp.MustCompile(`(?i)^(?:front|mặt\s+trước)(?:\s*:\s*|\s*$)(.*)$`)
	backPattern   = regexp.MustCompile(`(?i)^(?:back|mặt\s+sau)(?:\s*:\s*|\s*$)(.*)$`)
)

type draft struct {
	front []string
	back  []string
}

func (d *draft) card() (models.Flashcard, bool) {
	term := strings.TrimSpace(strings.Join(d.front, "\n"))
	definition := strings.TrimSpace(strings.Join(d.back, "\n"))
	if term == "" || definition == "" {
		return models.Flashcard{}, false
	}
	return models.Flashcard{Term: term, Definition: definition}, true
}

// MarkerAccumulator collects cards delimited by "FLASHCARD #n" markers with
// Front/Back (or Mặt trước/Mặt sau) sections. A card is flushed when the
// next marker appears or input ends, and only if both sides are present.
type MarkerAccumulator struct {
	state   State
	field   field
	current *draft
	emitted []models.Flashcard
}

func NewMarkerAccumulator() *MarkerAccumulator {
	return &MarkerAccumulator{state: StateScanning, emitted: []models.Flashcard{}}
}

func (a *MarkerAccumulator) State() State { return a.state }

func (a *MarkerAccumulator) Feed(line string) {
	b := bare(line)

	if m := markerPattern.FindStringSubmatch(b); m != nil {
		a.flush()
		a.state = StateInMarkerBlock
		a.current = &draft{}
		if rest := strings.TrimSpace(m[1]); rest != "" {
			a.Feed(rest)
		}
		return
	}

	if m := frontPattern.FindStringSubmatch(b); m != nil {
		if a.state == StateScanning || len(a.current.back) > 0 {
			a.flush()
			a.state = StateInMarkerBlock
			a.current = &draft{}
		}
		a.field = fieldFront
		a.appendText(m[1])
		return
	}

	if m := backPattern.FindStringSubmatch(b); m != nil {
		if a.state != StateInMarkerBlock {
			return
		}
		a.field = fieldBack
		a.appendText(m[1])
		return
	}

	if a.state == StateInMarkerBlock {
		a.appendText(outline.StripEmphasis(line))
	}
}

func (a *MarkerAccumulator) appendText(s string) {
	s = strings.TrimSpace(s)
	if s == "" || a.current == nil {
		return
	}
	switch a.field {
	case fieldFront:
		a.current.front = append(a.current.front, s)
	case fieldBack:
		a.current.back = append(a.current.back, s)
	}
}

func (a *MarkerAccumulator) flush() {
	if a.current != nil {
		if c, ok := a.current.card(); ok {
			a.emitted = append(a.emitted, c)
		}
	}
	a.current = nil
	a.field = fieldNone
	a.state = StateScanning
}

// Finish flushes the open card and returns every emitted card.
func (a *MarkerAccumulator) Finish() []models.Flashcard {
	a.flush()
	return a.emitted
}

// BulletAccumulator collects "- term: definition" lines. Non-bullet lines
// that follow a bullet extend its definition, joined with a space.
type BulletAccumulator struct {
	state      State
	term       string
	definition string
	emitted    []models.Flashcard
}

func NewBulletAccumulator() *BulletAccumulator {
	return &BulletAccumulator{state: StateScanning, emitted: []models.Flashcard{}}
}

func (a *BulletAccumulator) State() State { return a.state }

func (a *BulletAccumulator) Feed(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "- ") {
		a.flush()
		content := outline.StripEmphasis(trimmed[2:])
		term, definition, _ := strings.Cut(content, ":")
		a.term = strings.TrimSpace(term)
		a.definition = strings.TrimSpace(definition)
		a.state = StateInBullet
		return
	}

	if a.state != StateInBullet || trimmed == "" {
		return
	}
	extra := outline.StripEmphasis(trimmed)
	if a.definition == "" {
		a.definition = extra
	} else {
		a.definition += " " + extra
	}
}

func (a *BulletAccumulator) flush() {
	if a.state == StateInBullet && a.term != "" && a.definition != "" {
		a.emitted = append(a.emitted, models.Flashcard{Term: a.term, Definition: a.definition})
	}
	a.term, a.definition = "", ""
	a.state = StateScanning
}

func (a *BulletAccumulator) Finish() []models.Flashcard {
	a.flush()
	return a.emitted
}

// bare strips decoration that models wrap around markers: headings,
// blockquotes, bullets and bold markers.
func bare(line string) string {
	s := strings.ReplaceAll(strings.TrimSpace(line), "**", "")
	s = strings.TrimLeft(s, "#>-*• \t")
	return strings.TrimSpace(s)
}
