// internal/workers/study-tools/record-progress/handler.go
package recordprogress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"study-assistant-workers/internal/common/database"
	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/normalize"
	"study-assistant-workers/internal/study/progress"
)

const TaskType = "record-progress"

// Store is satisfied by *database.ProgressStore.
type Store interface {
	SaveSnapshot(ctx context.Context, snap database.ProgressSnapshot) (int, error)
}

type Handler struct {
	config *Config
	store  Store
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
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

	now := h.now()
	subjects, err := h.subjects(input, now)
	if err != nil {
		return nil, err
	}

	output := &Output{
		UserID:     userID,
		Summary:    progress.Lines(subjects),
		RecordedAt: now,
	}

	if len(subjects) == 0 {
		h.logger.Info("no progress to record", map[string]interface{}{
			"requestId": input.RequestID,
			"userId":    userID,
		})
		return output, nil
	}

	snap := database.ProgressSnapshot{
		ID:         uuid.New().String(),
		UserID:     userID,
		Subjects:   subjects,
		RecordedAt: now,
	}

	written, err := h.store.SaveSnapshot(ctx, snap)
	if err != nil {
		h.logger.Error("failed to save progress snapshot", map[string]interface{}{
			"snapshotId": snap.ID,
			"userId":     userID,
			"error":      err,
		})
		return nil, errors.NewProgressPersistFailedError(err)
	}

	output.SnapshotID = snap.ID
	output.SubjectsRecorded = written

	h.logger.Info("progress recorded", map[string]interface{}{
		"requestId":  input.RequestID,
		"snapshotId": snap.ID,
		"userId":     userID,
		"subjects":   written,
	})

	return output, nil
}

// subjects picks the subject map out of the input. A success message
// records the single subject it confirms, stamped with now.
func (h *Handler) subjects(input *Input, now time.Time) (map[string]models.SubjectProgress, error) {
	artifact := input.Artifact
	if artifact == nil {
		a, err := normalize.Normalize(string(models.ActionProgress), input.RawResponse)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		artifact = &a
	}

	var raw map[string]models.SubjectProgress
	switch artifact.Kind {
	case models.KindProgress:
		if artifact.Progress == nil {
			break
		}
		if artifact.Progress.Kind == models.ProgressKindSuccessMessage {
			if artifact.Progress.Subject == "" {
				break
			}
			stamp := now
			raw = map[string]models.SubjectProgress{
				artifact.Progress.Subject: {
					Subject:         artifact.Progress.Subject,
					ProgressPercent: artifact.Progress.ProgressPercent,
					LastUpdatedAt:   &stamp,
				},
			}
			break
		}
		raw = artifact.Progress.Subjects

	case models.KindStats:
		if !h.config.AcceptStats || artifact.Stats == nil {
			break
		}
		raw = artifact.Stats.Subjects

	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("artifact kind %q carries no progress", artifact.Kind))
	}

	out := make(map[string]models.SubjectProgress, len(raw))
	for _, key := range progress.Names(raw) {
		sp := raw[key]
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		sp.Subject = name
		sp.ProgressPercent = progress.Clamp(float64(sp.ProgressPercent))
		out[name] = sp
	}
	return out, nil
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
