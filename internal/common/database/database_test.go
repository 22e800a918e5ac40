package database

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant-workers/internal/common/config"
	"study-assistant-workers/internal/models"
)

// ==========================
// Progress store
// ==========================

func TestProgressStore_SaveSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stamp := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := ProgressSnapshot{
		ID:     "6f1c1c1e-0000-4000-8000-000000000001",
		UserID: "user-1",
		Subjects: map[string]models.SubjectProgress{
			"Toán": {Subject: "Toán", ProgressPercent: 45, LastUpdatedAt: &stamp},
			"Lý":   {Subject: "Lý", ProgressPercent: 80},
		},
		RecordedAt: stamp,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subject_progress").
		WithArgs("user-1", "Lý", int64(80), nil, snap.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subject_progress").
		WithArgs("user-1", "Toán", int64(45), sqlmock.AnyArg(), snap.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewProgressStore(db).SaveSnapshot(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressStore_SaveSnapshot_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subject_progress").WillReturnError(errors.New("check constraint"))
	mock.ExpectRollback()

	_, err = NewProgressStore(db).SaveSnapshot(context.Background(), ProgressSnapshot{
		ID:       "s",
		UserID:   "u",
		Subjects: map[string]models.SubjectProgress{"Math": {Subject: "Math", ProgressPercent: 10}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Math")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subject_progress").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewProgressStore(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Artifact cache
// ==========================

func sampleArtifact() models.Artifact {
	return models.Artifact{
		Action:     models.ActionFlashcards,
		Kind:       models.KindFlashcards,
		Flashcards: []models.Flashcard{{Term: "Mitosis", Definition: "Cell division"}},
	}
}

func TestArtifactCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	c := NewArtifactCache(rdb, time.Hour, 0, "artifact")
	key, err := c.Key("flashcards", map[string]interface{}{"response": "x"})
	require.NoError(t, err)
	assert.Regexp(t, `^artifact:flashcards:[0-9a-f]{64}$`, key)

	_, res, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, res)

	require.NoError(t, c.Set(ctx, key, sampleArtifact()))
	assert.Equal(t, time.Hour, mr.TTL(key))

	got, res, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, CacheHit, res)
	assert.Equal(t, sampleArtifact(), *got)
}

func TestArtifactCache_LocalLayer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	c := NewArtifactCache(rdb, time.Hour, time.Minute, "artifact")
	require.NoError(t, c.Set(ctx, "artifact:flashcards:k", sampleArtifact()))

	mr.FlushAll()

	got, res, err := c.Get(ctx, "artifact:flashcards:k")
	require.NoError(t, err)
	assert.Equal(t, CacheLocalHit, res)
	assert.Equal(t, "Mitosis", got.Flashcards[0].Term)
}

func TestArtifactCache_KeyIsStable(t *testing.T) {
	c := NewArtifactCache(nil, time.Hour, 0, "artifact")
	a, err := c.Key("quiz", map[string]interface{}{"b": 1, "a": 2})
	require.NoError(t, err)
	b, err := c.Key("quiz", map[string]interface{}{"a": 2, "b": 1})
	require.NoError(t, err)
	other, err := c.Key("flashcards", map[string]interface{}{"a": 2, "b": 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
}

func TestArtifactCache_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("artifact:quiz:k").SetErr(errors.New("connection refused"))

	c := NewArtifactCache(db, time.Hour, 0, "artifact")
	got, res, err := c.Get(context.Background(), "artifact:quiz:k")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, CacheMiss, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtifactCache_CorruptEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("artifact:quiz:k").SetVal("{not json")

	c := NewArtifactCache(db, time.Hour, 0, "artifact")
	_, res, err := c.Get(context.Background(), "artifact:quiz:k")
	require.Error(t, err)
	assert.Equal(t, CacheMiss, res)
}

// ==========================
// Elasticsearch
// ==========================

func newTestES(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &ElasticsearchClient{Client: es}
}

func TestElasticsearch_IndexDocument(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotDoc    map[string]interface{}
	)
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := client.IndexDocument(context.Background(), "study-materials", "doc-1",
		map[string]interface{}{"title": "Cells"}, "false")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/study-materials/_doc/doc-1", gotPath)
	assert.Equal(t, "Cells", gotDoc["title"])
}

func TestElasticsearch_IndexDocument_Error(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := client.IndexDocument(context.Background(), "study-materials", "doc-1", map[string]interface{}{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

// ==========================
// Clients
// ==========================

func TestPostgresClient_ProgressStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subject_progress").WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := (&PostgresClient{DB: db}).ProgressStore(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_ProgressStore_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	_, err = (&PostgresClient{DB: db}).ProgressStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestRedisClient_ArtifactCache(t *testing.T) {
	mr := miniredis.RunT(t)

	_, err := NewRedis(config.RedisConfig{})
	require.Error(t, err)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()))

	assert.Nil(t, client.ArtifactCache(config.CacheConfig{Enabled: false}))

	cache := client.ArtifactCache(config.CacheConfig{Enabled: true, TTL: 60, KeyPrefix: "artifact"})
	require.NotNil(t, cache)

	key, err := cache.Key("chat", "hello")
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), key, models.Artifact{Action: models.ActionChat, Kind: models.KindText, Text: "hello"}))
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}
