// internal/study/outline/outline.go
package outline

import (
	"regexp"
	"strconv"
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/segment"
)

var (
	boldStars       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderscores = regexp.MustCompile(`__(.+?)__`)
	italicStar      = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	italicUnder     = regexp.MustCompile(`(^|[\s(])_([^_\s](?:[^_]*[^_\s])?)_($|[\s).,!?:;])`)
)

// frame is an open container on the nesting stack. Headings sit at
// indent -1 so every list item nests under them.
type frame struct {
	indent int
	path   []int
}

// Build nests classified lines into an outline. Headings are always top
// level and reset nesting; a bullet or numbered line becomes a child of
// the most recent open node with a strictly smaller indent.
func Build(lines []segment.Line) []models.OutlineNode {
	var roots []models.OutlineNode
	var stack []frame

	for _, line := range lines {
		switch line.Kind {
		case segment.KindHeading:
			roots = append(roots, models.OutlineNode{
				Level: headingLevel(line.Rank),
				Kind:  models.NodeHeading,
				Text:  StripEmphasis(line.Content),
			})
			stack = []frame{{indent: -1, path: []int{len(roots) - 1}}}

		case segment.KindBlank:
			node := models.OutlineNode{Kind: models.NodeBlank}
			if len(stack) > 0 && stack[0].indent < 0 {
				appendAt(&roots, stack[0].path, node)
			} else {
				roots = append(roots, node)
			}

		default:
			for len(stack) > 0 && stack[len(stack)-1].indent >= line.Indent {
				stack = stack[:len(stack)-1]
			}

			node := models.OutlineNode{
				Level: line.Indent,
				Kind:  nodeKind(line.Kind),
				Text:  StripEmphasis(line.Content),
			}
			if line.Kind == segment.KindNumbered {
				node.Ordinal = line.Ordinal
			}

			var path []int
			if len(stack) == 0 {
				roots = append(roots, node)
				path = []int{len(roots) - 1}
			} else {
				parent := stack[len(stack)-1].path
				idx := appendAt(&roots, parent, node)
				path = append(append([]int(nil), parent...), idx)
			}

			if line.Kind == segment.KindBullet || line.Kind == segment.KindNumbered {
				stack = append(stack, frame{indent: line.Indent, path: path})
			}
		}
	}

	return trimBlanks(roots)
}

// FromText segments and builds in one step.
func FromText(text string) []models.OutlineNode {
	return Build(segment.Segment(text))
}

// appendAt appends node to the children of the node addressed by path and
// returns its index among those children.
func appendAt(roots *[]models.OutlineNode, path []int, node models.OutlineNode) int {
	target := &(*roots)[path[0]]
	for _, i := range path[1:] {
		target = &target.Children[i]
	}
	target.Children = append(target.Children, node)
	return len(target.Children) - 1
}

func trimBlanks(nodes []models.OutlineNode) []models.OutlineNode {
	start, end := 0, len(nodes)
	for start < end && nodes[start].Kind == models.NodeBlank {
		start++
	}
	for end > start && nodes[end-1].Kind == models.NodeBlank {
		end--
	}
	if start == end {
		return nil
	}
	out := nodes[start:end]
	for i := range out {
		if len(out[i].Children) > 0 {
			out[i].Children = trimBlanks(out[i].Children)
		}
	}
	return out
}

func headingLevel(rank int) int {
	if rank <= 1 {
		return 0
	}
	return rank - 1
}

func nodeKind(k segment.Kind) models.NodeKind {
	switch k {
	case segment.KindBullet:
		return models.NodeBullet
	case segment.KindNumbered:
		return models.NodeNumbered
	case segment.KindKeyValue:
		return models.NodeKeyValue
	default:
		return models.NodeParagraph
	}
}

// StripEmphasis removes inline bold and italic markers.
func StripEmphasis(s string) string {
	s = boldStars.ReplaceAllString(s, "$1")
	s = boldUnderscores.ReplaceAllString(s, "$1")
	s = italicStar.ReplaceAllString(s, "$1")
	s = italicUnder.ReplaceAllString(s, "$1$2$3")
	return strings.TrimSpace(s)
}

// Title returns the first heading text, else the first non-blank text.
func Title(nodes []models.OutlineNode) string {
	for _, n := range nodes {
		if n.Kind == models.NodeHeading && n.Text != "" {
			return n.Text
		}
	}
	for _, n := range nodes {
		if n.Kind != models.NodeBlank && n.Text != "" {
			return n.Text
		}
	}
	return ""
}

// Markdown renders the outline back into a normalized markdown document.
func Markdown(nodes []models.OutlineNode) string {
	var b strings.Builder
	writeMarkdown(&b, nodes, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeMarkdown(b *strings.Builder, nodes []models.OutlineNode, depth int) {
	for _, n := range nodes {
		pad := strings.Repeat("  ", depth)
		switch n.Kind {
		case models.NodeHeading:
			b.WriteString(strings.Repeat("#", n.Level+1))
			b.WriteString(" ")
			b.WriteString(n.Text)
			b.WriteString("\n")
			writeMarkdown(b, n.Children, 0)
			continue
		case models.NodeBlank:
			b.WriteString("\n")
		case models.NodeBullet:
			b.WriteString(pad + "- " + n.Text + "\n")
		case models.NodeNumbered:
			b.WriteString(pad + strconv.Itoa(n.Ordinal) + ". " + n.Text + "\n")
		default:
			b.WriteString(pad + n.Text + "\n")
		}
		writeMarkdown(b, n.Children, depth+1)
	}
}
