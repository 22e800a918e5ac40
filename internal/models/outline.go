// internal/models/outline.go
package models

type NodeKind string

const (
	NodeHeading   NodeKind = "heading"
	NodeBullet    NodeKind = "bullet"
	NodeNumbered  NodeKind = "numbered"
	NodeKeyValue  NodeKind = "keyvalue"
	NodeParagraph NodeKind = "paragraph"
	NodeBlank     NodeKind = "blank"
)

// OutlineNode is one element of a formatted document. Level is the heading
// rank minus one for headings and the indent level for everything else.
type OutlineNode struct {
	Level    int           `json:"level"`
	Kind     NodeKind      `json:"kind"`
	Text     string        `json:"text"`
	Ordinal  int           `json:"ordinal,omitempty"`
	Children []OutlineNode `json:"children,omitempty"`
}
