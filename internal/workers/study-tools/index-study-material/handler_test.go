// internal/workers/study-tools/index-study-material/handler_test.go
package indexstudymaterial

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant-workers/internal/common/database"
	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/normalize"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// ==========================
// Test Doubles
// ==========================

type fakeIndexer struct {
	mu   sync.Mutex
	docs map[string]StudyDocument
	err  error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: map[string]StudyDocument{}}
}

func (f *fakeIndexer) IndexDocument(_ context.Context, index, id string, doc interface{}, refresh string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = doc.(StudyDocument)
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.IndexName = "study-materials-test"
	cfg.Timeout = time.Second
	return cfg
}

func newTestHandler(t *testing.T, indexer Indexer) *Handler {
	h := NewHandler(createTestConfig(), indexer, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func flashcards() models.Artifact {
	return models.Artifact{
		Action: models.ActionFlashcards,
		Kind:   models.KindFlashcards,
		Flashcards: []models.Flashcard{
			{Term: "Osmosis", Definition: "Diffusion of water"},
			{Term: "Mitosis", Definition: "Cell division"},
		},
	}
}

func quiz() models.Artifact {
	return models.Artifact{
		Action: models.ActionQuiz,
		Kind:   models.KindQuiz,
		Quiz: &models.Quiz{Kind: models.QuizKindQuestions, Questions: []models.QuizQuestion{
			{Question: "2+2?", Options: []string{"3", "4"}, CorrectOptionIndex: 1, Explanation: "Arithmetic"},
		}},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesArtifacts(t *testing.T) {
	indexer := newFakeIndexer()

	output, err := newTestHandler(t, indexer).Execute(context.Background(), &Input{
		RequestID: "req-9",
		UserID:    "user-1",
		Artifact:  ptr(flashcards()),
		Artifacts: []models.Artifact{quiz(), {Action: models.ActionChat, Kind: models.KindText}},
		Sources:   []map[string]interface{}{{"title": "Biology.pdf"}, {"page": 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, "study-materials-test", output.IndexName)
	assert.Equal(t, 2, output.Indexed)
	assert.Equal(t, 1, output.Skipped)
	require.Len(t, output.DocumentIDs, 2)

	cards := indexer.docs[output.DocumentIDs[0]]
	assert.Equal(t, "user-1", cards.UserID)
	assert.Equal(t, "req-9", cards.RequestID)
	assert.Equal(t, "Osmosis", cards.Title)
	assert.Equal(t, "Osmosis: Diffusion of water\nMitosis: Cell division", cards.Content)
	assert.Equal(t, []string{"Biology.pdf"}, cards.Sources)
	assert.Equal(t, fixedNow, cards.IndexedAt)

	q := indexer.docs[output.DocumentIDs[1]]
	assert.Equal(t, "quiz", q.Kind)
	assert.Equal(t, "1. 2+2?\n  A. 3\n* B. 4\nArithmetic", q.Content)
}

func TestHandler_Execute_StableIDs(t *testing.T) {
	indexer := newFakeIndexer()
	h := newTestHandler(t, indexer)

	first, err := h.Execute(context.Background(), &Input{UserID: "u", Artifacts: []models.Artifact{flashcards(), flashcards()}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed, "identical artifacts collapse")

	second, err := h.Execute(context.Background(), &Input{UserID: "u", Artifact: ptr(flashcards())})
	require.NoError(t, err)
	assert.Equal(t, first.DocumentIDs, second.DocumentIDs)

	other, err := h.Execute(context.Background(), &Input{UserID: "someone-else", Artifact: ptr(flashcards())})
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentIDs, other.DocumentIDs)
}

func TestContent_OutlineAndProgress(t *testing.T) {
	mindmap := models.Artifact{
		Action:   models.ActionMindMap,
		Kind:     models.KindMindMap,
		Outline:  []models.OutlineNode{{Kind: models.NodeHeading, Text: "Cells"}},
		Markdown: "# Cells\n- Nucleus",
	}
	assert.Equal(t, "# Cells\n- Nucleus", content(mindmap))
	assert.Equal(t, "Cells", title(mindmap))

	pr := models.Artifact{Action: models.ActionProgress, Kind: models.KindProgress, Progress: &models.Progress{
		Kind: models.ProgressKindSubjects,
		Subjects: map[string]models.SubjectProgress{
			"Toán": {Subject: "Toán", ProgressPercent: 45},
			"Lý":   {Subject: "Lý", ProgressPercent: 80},
		},
	}}
	assert.Equal(t, "- Lý: 80%\n- Toán: 45%", content(pr))
	assert.Equal(t, "progress", title(pr))
}

func TestContent_Stats(t *testing.T) {
	stats := models.Artifact{Action: models.ActionStats, Kind: models.KindStats, Stats: &models.Stats{
		Subjects:  map[string]models.SubjectProgress{"Toán": {Subject: "Toán", ProgressPercent: 45}},
		Documents: []models.Document{{Name: "dai-so.pdf", Subject: "Toán"}},
		RecentActivities: []models.Activity{
			{Action: normalize.ActivityUpdateProgress, Subject: "Toán", Progress: 45},
			{Action: normalize.ActivityCreatePlan, Subject: "Lý"},
		},
		Recommendations: []string{"Ôn lại chương 2"},
	}}

	assert.Equal(t, "- Toán: 45%\n"+
		"dai-so.pdf\n"+
		"Cập nhật tiến độ môn Toán: 45%\n"+
		"Đã tạo kế hoạch học tập cho môn Lý\n"+
		"Ôn lại chương 2", content(stats))
}

// ==========================
// Elasticsearch Integration
// ==========================

func TestHandler_Execute_Elasticsearch(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		body  map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	output, err := newTestHandler(t, &database.ElasticsearchClient{Client: es}).Execute(context.Background(), &Input{
		UserID:   "user-1",
		Artifact: ptr(quiz()),
	})
	require.NoError(t, err)
	require.Len(t, output.DocumentIDs, 1)

	require.Len(t, paths, 1)
	assert.Equal(t, "PUT /study-materials-test/_doc/"+output.DocumentIDs[0], paths[0])
	assert.Equal(t, "2+2?", body["title"])
	assert.Equal(t, "user-1", body["user_id"])
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		indexer Indexer
		input   *Input
		code    errors.ErrorCode
	}{
		{
			name:    "missing user",
			indexer: newFakeIndexer(),
			input:   &Input{Artifact: ptr(quiz())},
			code:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "no artifacts",
			indexer: newFakeIndexer(),
			input:   &Input{UserID: "u"},
			code:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "indexer failure",
			indexer: &fakeIndexer{err: stderrors.New("cluster_block_exception")},
			input:   &Input{UserID: "u", Artifact: ptr(quiz())},
			code:    errors.ErrCodeIndexFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestHandler(t, tt.indexer).Execute(context.Background(), tt.input)
			require.Error(t, err)

			std := errors.Normalize(err)
			assert.Equal(t, tt.code, std.Code)
			if tt.code == errors.ErrCodeIndexFailed {
				assert.True(t, strings.Contains(std.Details, "cluster_block_exception"))
			}
		})
	}
}

func ptr(a models.Artifact) *models.Artifact { return &a }
