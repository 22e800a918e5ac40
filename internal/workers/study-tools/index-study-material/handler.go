// internal/workers/study-tools/index-study-material/handler.go
package indexstudymaterial

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
	"study-assistant-workers/internal/models"
)

const TaskType = "index-study-material"

// Indexer is satisfied by *database.ElasticsearchClient.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}, refresh string) error
}

type Handler struct {
	config  *Config
	indexer Indexer
	errors  *errors.ErrorHandler
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		indexer: indexer,
		errors:  errors.NewErrorHandler(log),
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.NewInvalidInputError("userId is required")
	}

	artifacts := input.Artifacts
	if input.Artifact != nil {
		artifacts = append([]models.Artifact{*input.Artifact}, artifacts...)
	}
	if len(artifacts) == 0 {
		return nil, errors.NewInvalidInputError("artifact or artifacts is required")
	}

	docs := h.documents(userID, input, artifacts)
	output := &Output{
		IndexName:   h.config.IndexName,
		DocumentIDs: make([]string, 0, len(docs)),
		Skipped:     len(artifacts) - len(docs),
	}

	concurrency := h.config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := h.indexer.IndexDocument(gctx, h.config.IndexName, doc.ID, doc, h.config.Refresh); err != nil {
				return fmt.Errorf("document %s: %w", doc.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.Error("failed to index study material", map[string]interface{}{
			"index": h.config.IndexName,
			"error": err,
		})
		return nil, errors.NewIndexFailedError(h.config.IndexName, err)
	}

	for _, doc := range docs {
		output.DocumentIDs = append(output.DocumentIDs, doc.ID)
	}
	output.Indexed = len(docs)

	h.logger.Info("study material indexed", map[string]interface{}{
		"requestId": input.RequestID,
		"index":     h.config.IndexName,
		"indexed":   output.Indexed,
		"skipped":   output.Skipped,
	})

	return output, nil
}

// documents builds one document per non-empty artifact. Artifacts that
// flatten to the same content share an id and are indexed once.
func (h *Handler) documents(userID string, input *Input, artifacts []models.Artifact) []StudyDocument {
	now := h.now()
	sources := sourceNames(input.Sources)
	seen := make(map[string]bool, len(artifacts))

	docs := make([]StudyDocument, 0, len(artifacts))
	for _, a := range artifacts {
		if a.IsEmpty() {
			continue
		}
		text := content(a)
		if text == "" {
			continue
		}
		id := documentID(userID, a, text)
		if seen[id] {
			continue
		}
		seen[id] = true

		docs = append(docs, StudyDocument{
			ID:        id,
			UserID:    userID,
			RequestID: input.RequestID,
			Action:    string(a.Action),
			Kind:      string(a.Kind),
			Title:     title(a),
			Content:   text,
			Sources:   sources,
			IndexedAt: now,
		})
	}
	return docs
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
