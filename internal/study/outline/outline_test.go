package outline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant-workers/internal/models"
)

func TestFromText_Nesting(t *testing.T) {
	nodes := FromText("# Title\n- Point A\n  - Sub A1\n- Point B")

	require.Len(t, nodes, 1)
	title := nodes[0]
	assert.Equal(t, models.NodeHeading, title.Kind)
	assert.Equal(t, "Title", title.Text)
	assert.Equal(t, 0, title.Level)

	require.Len(t, title.Children, 2)
	assert.Equal(t, "Point A", title.Children[0].Text)
	assert.Equal(t, "Point B", title.Children[1].Text)
	assert.Empty(t, title.Children[1].Children)

	require.Len(t, title.Children[0].Children, 1)
	sub := title.Children[0].Children[0]
	assert.Equal(t, "Sub A1", sub.Text)
	assert.Equal(t, models.NodeBullet, sub.Kind)
	assert.Equal(t, 1, sub.Level)
}

func TestFromText_HeadingResetsNesting(t *testing.T) {
	nodes := FromText("# One\n- a\n  - a1\n## Two\n  - b")

	require.Len(t, nodes, 2)
	assert.Equal(t, "One", nodes[0].Text)
	assert.Equal(t, "Two", nodes[1].Text)
	assert.Equal(t, 1, nodes[1].Level)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "b", nodes[1].Children[0].Text)
}

func TestFromText_SingleParagraph(t *testing.T) {
	nodes := FromText("Không có câu hỏi nào được tạo.")

	require.Len(t, nodes, 1)
	assert.Equal(t, models.NodeParagraph, nodes[0].Kind)
	assert.Equal(t, "Không có câu hỏi nào được tạo.", nodes[0].Text)
	assert.Empty(t, nodes[0].Children)
}

func TestFromText_MixedContent(t *testing.T) {
	text := "## Tuần 1\n\n1. **Đọc** chương 1\n   - Ghi chú *quan trọng*\n2. Làm bài tập\n\nThời lượng: 2 giờ\n\n"
	nodes := FromText(text)

	require.Len(t, nodes, 1)
	week := nodes[0]
	require.Len(t, week.Children, 4)

	assert.Equal(t, models.NodeNumbered, week.Children[0].Kind)
	assert.Equal(t, "Đọc chương 1", week.Children[0].Text)
	assert.Equal(t, 1, week.Children[0].Ordinal)
	require.Len(t, week.Children[0].Children, 1)
	assert.Equal(t, "Ghi chú quan trọng", week.Children[0].Children[0].Text)

	assert.Equal(t, models.NodeNumbered, week.Children[1].Kind)
	assert.Equal(t, 2, week.Children[1].Ordinal)
	assert.Equal(t, models.NodeBlank, week.Children[2].Kind)
	assert.Equal(t, models.NodeKeyValue, week.Children[3].Kind)
	assert.Equal(t, "Thời lượng: 2 giờ", week.Children[3].Text)
}

func TestFromText_ParagraphEndsList(t *testing.T) {
	nodes := FromText("- a\n  continuation\ntop level")

	require.Len(t, nodes, 2)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "continuation", nodes[0].Children[0].Text)
	assert.Equal(t, "top level", nodes[1].Text)
}

func TestFromText_Empty(t *testing.T) {
	assert.Empty(t, FromText(""))
	assert.Empty(t, FromText("\n\n\n"))
}

func TestFromText_Idempotent(t *testing.T) {
	text := "# A\n- b\n  - c\n\nd"
	first, _ := json.Marshal(FromText(text))
	second, _ := json.Marshal(FromText(text))
	assert.Equal(t, string(first), string(second))
}

func TestStripEmphasis(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"**bold** text", "bold text"},
		{"an *italic* word", "an italic word"},
		{"__strong__ and _soft_", "strong and soft"},
		{"snake_case_name stays", "snake_case_name stays"},
		{"2 * 3 * 4", "2 * 3 * 4"},
		{"***both***", "both"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripEmphasis(tt.in))
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Map", Title(FromText("intro\n# Map\n- a")))
	assert.Equal(t, "intro", Title(FromText("intro\n- a")))
	assert.Equal(t, "", Title(nil))
}

func TestMarkdown(t *testing.T) {
	text := "# Title\n- Point A\n  - Sub A1\n1. Step\nnote"
	md := Markdown(FromText(text))

	assert.Equal(t, "# Title\n- Point A\n  - Sub A1\n1. Step\nnote", md)
}
