// internal/study/segment/segment.go
package segment

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindBlank     Kind = "blank"
	KindHeading   Kind = "heading"
	KindNumbered  Kind = "numbered"
	KindBullet    Kind = "bullet"
	KindKeyValue  Kind = "keyvalue"
	KindParagraph Kind = "paragraph"
)

var (
	headingPattern  = regexp.MustCompile(`^(#+)\s*(.*)$`)
	numberedPattern = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	bulletPattern   = regexp.MustCompile(`^[-*+•]\s+(.*)$`)
	keyValuePattern = regexp.MustCompile(`^([^:]+):\s*(\S.*)$`)
)

// Line is one classified source line. Indent is floor(leadingSpaces/2);
// a tab counts as two spaces. Rank is the number of '#' for headings and
// Ordinal the list number for numbered items.
type Line struct {
	Raw     string `json:"raw"`
	Kind    Kind   `json:"kind"`
	Indent  int    `json:"indent"`
	Content string `json:"content"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
	Rank    int    `json:"rank,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
}

// Segment splits text into classified lines. Consecutive blank lines
// collapse into one.
func Segment(text string) []Line {
	var out []Line
	for l := range Lines(text) {
		out = append(out, l)
	}
	return out
}

// Lines returns a restartable sequence over the segmentation of text.
// Every call of the returned function walks the text from the start.
func Lines(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		text := strings.ReplaceAll(text, "\r\n", "\n")
		if text == "" {
			return
		}
		prevBlank := false
		for _, raw := range strings.Split(text, "\n") {
			line := Classify(raw)
			if line.Kind == KindBlank {
				if prevBlank {
					continue
				}
				prevBlank = true
			} else {
				prevBlank = false
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Classify assigns a kind to a single line. First match wins: heading,
// numbered, bullet, key-value, paragraph.
func Classify(raw string) Line {
	raw = strings.TrimRight(raw, "\r")
	trimmed := strings.TrimSpace(raw)
	line := Line{Raw: raw, Indent: indentOf(raw)}

	if trimmed == "" {
		line.Kind = KindBlank
		line.Indent = 0
		return line
	}

	if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindHeading
		line.Indent = 0
		line.Rank = len(m[1])
		line.Content = strings.TrimSpace(m[2])
		return line
	}

	if m := numberedPattern.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindNumbered
		line.Ordinal, _ = strconv.Atoi(m[1])
		line.Content = strings.TrimSpace(m[2])
		return line
	}

	if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindBullet
		line.Content = strings.TrimSpace(m[1])
		return line
	}

	if m := keyValuePattern.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindKeyValue
		line.Content = trimmed
		line.Key = strings.TrimSpace(m[1])
		line.Value = strings.TrimSpace(m[2])
		return line
	}

	line.Kind = KindParagraph
	line.Content = trimmed
	return line
}

func indentOf(raw string) int {
	spaces := 0
	for _, r := range raw {
		switch r {
		case ' ':
			spaces++
		case '\t':
			spaces += 2
		default:
			return spaces / 2
		}
	}
	return spaces / 2
}
