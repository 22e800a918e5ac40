// internal/workers/study-tools/normalize-response/handler.go
package normalizeresponse

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"study-assistant-workers/internal/common/database"
	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
	"study-assistant-workers/internal/common/validation"
	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/normalize"
)

const TaskType = "normalize-response"

// ArtifactCache is satisfied by *database.ArtifactCache.
type ArtifactCache interface {
	Key(action string, raw interface{}) (string, error)
	Get(ctx context.Context, key string) (*models.Artifact, database.CacheResult, error)
	Set(ctx context.Context, key string, a models.Artifact) error
}

// Telemetry is satisfied by *observability.Observability.
type Telemetry interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordArtifactItems(ctx context.Context, kind string, n int)
}

type Handler struct {
	config    *Config
	cache     ArtifactCache
	telemetry Telemetry
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

// NewHandler accepts a nil cache or telemetry; both are then skipped.
func NewHandler(config *Config, cache ArtifactCache, telemetry Telemetry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		cache:     cache,
		telemetry: telemetry,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
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
	action := strings.ToLower(strings.TrimSpace(input.Action))

	ctx, span := h.startSpan(ctx, "normalize-response",
		attribute.String("study.action", action),
		attribute.String("study.request_id", input.RequestID),
	)
	defer span.End()

	if _, ok := models.ParseAction(action); !ok {
		err := errors.NewUnsupportedActionError(input.Action)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	key := h.cacheKey(action, input.RawResponse)
	if cached := h.lookup(ctx, key); cached != nil {
		span.SetAttributes(attribute.Bool("study.cache_hit", true))
		return h.output(input.RequestID, *cached, true), nil
	}

	artifact, err := normalize.Normalize(action, input.RawResponse)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize")
		if stderrors.Is(err, normalize.ErrUnsupportedAction) {
			return nil, errors.NewUnsupportedActionError(input.Action)
		}
		return nil, errors.NewInternalError(err)
	}

	if err := h.validate(artifact); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validate")
		return nil, err
	}

	output := h.output(input.RequestID, artifact, false)

	metrics.ArtifactsNormalized.WithLabelValues(action, output.Kind).Inc()
	if output.Empty || artifact.Kind == models.KindFormattedText {
		metrics.NormalizationFallbacks.WithLabelValues(action).Inc()
	}
	if h.telemetry != nil {
		h.telemetry.RecordArtifactItems(ctx, output.Kind, output.ItemCount)
	}
	span.SetAttributes(
		attribute.String("study.kind", output.Kind),
		attribute.Int("study.items", output.ItemCount),
	)

	if key != "" && !output.Empty {
		if err := h.cache.Set(ctx, key, artifact); err != nil {
			h.logger.Warn("artifact cache write failed", map[string]interface{}{
				"requestId": input.RequestID,
				"error":     err,
			})
		}
	}

	h.logger.Info("response normalized", map[string]interface{}{
		"requestId": input.RequestID,
		"action":    action,
		"kind":      output.Kind,
		"items":     output.ItemCount,
		"empty":     output.Empty,
	})

	return output, nil
}

func (h *Handler) output(requestID string, artifact models.Artifact, cached bool) *Output {
	return &Output{
		RequestID: requestID,
		Artifact:  artifact,
		Kind:      string(artifact.Kind),
		ItemCount: itemCount(artifact),
		Empty:     artifact.IsEmpty(),
		Cached:    cached,
	}
}

func (h *Handler) cacheKey(action string, raw interface{}) string {
	if h.cache == nil || !h.config.CacheEnabled {
		return ""
	}
	key, err := h.cache.Key(action, raw)
	if err != nil {
		h.logger.Warn("artifact cache key failed", map[string]interface{}{"error": err})
		return ""
	}
	return key
}

// lookup treats every cache failure as a miss.
func (h *Handler) lookup(ctx context.Context, key string) *models.Artifact {
	if key == "" {
		return nil
	}
	artifact, result, err := h.cache.Get(ctx, key)
	if err != nil {
		metrics.ArtifactCacheRequests.WithLabelValues("error").Inc()
		h.logger.Warn("artifact cache read failed", map[string]interface{}{
			"error": errors.NewCacheUnavailableError(err).Details,
		})
		return nil
	}
	metrics.ArtifactCacheRequests.WithLabelValues(string(result)).Inc()
	return artifact
}

func (h *Handler) validate(artifact models.Artifact) error {
	result, err := validation.ValidateArtifact(string(artifact.Kind), artifact)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if result.Valid {
		return nil
	}

	details := strings.Join(result.GetErrorMessages(), "; ")
	if !h.config.RejectInvalid {
		h.logger.Warn("artifact failed schema validation", map[string]interface{}{
			"kind":    artifact.Kind,
			"details": details,
		})
		return nil
	}
	return errors.NewArtifactValidationFailedError(string(artifact.Kind), details)
}

func (h *Handler) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if h.telemetry == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return h.telemetry.StartSpan(ctx, name, attrs...)
}

// itemCount is the number of renderable units in an artifact.
func itemCount(a models.Artifact) int {
	switch a.Kind {
	case models.KindFlashcards:
		return len(a.Flashcards)
	case models.KindQuiz:
		if a.Quiz != nil {
			return len(a.Quiz.Questions)
		}
	case models.KindFormattedText:
		if a.Quiz != nil {
			return len(a.Quiz.Outline)
		}
	case models.KindOutline, models.KindMindMap:
		return len(a.Outline)
	case models.KindProgress:
		if a.Progress != nil {
			return len(a.Progress.Subjects)
		}
	case models.KindStats:
		if a.Stats != nil {
			return len(a.Stats.Subjects) + len(a.Stats.Documents) + len(a.Stats.RecentActivities)
		}
	default:
		if a.Text != "" {
			return 1
		}
	}
	return 0
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
