// internal/workers/study-tools/format-progress-update/handler.go
package formatprogressupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
	"study-assistant-workers/internal/common/validation"
	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
	"study-assistant-workers/internal/study/progress"
)

const TaskType = "format-progress-update"

const updateSchema = `{
	"type": "object",
	"required": ["subject", "progress"],
	"properties": {
		"subject":  {"type": "string", "minLength": 1, "maxLength": 200},
		"progress": {"type": "number", "minimum": 0, "maximum": 100}
	}
}`

var messagePattern = regexp.MustCompile(`^(.+?)\s*:\s*(-?\d+(?:\.\d+)?)\s*%?$`)

type Handler struct {
	config *Config
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		errors: errors.NewErrorHandler(log),
		logger: log,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	subject := strings.TrimSpace(input.Subject)
	var percent interface{}
	if input.Progress != nil {
		percent = *input.Progress
	}

	if message := strings.TrimSpace(input.Message); message != "" && (subject == "" || input.Progress == nil) {
		s, p, ok := parseMessage(message)
		if !ok {
			return nil, errors.NewInvalidProgressUpdateError(fmt.Sprintf("cannot read a subject and percentage from %q", message))
		}
		subject, percent = s, p
	}

	result, err := validation.ValidateInput(map[string]interface{}{
		"subject":  subject,
		"progress": percent,
	}, updateSchema)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidProgressUpdateError(strings.Join(result.GetErrorMessages(), "; "))
	}

	value := progress.Clamp(percent.(float64))
	output := &Output{
		Subject:  subject,
		Progress: value,
		Input:    progress.FormatUpdate(subject, value),
		Update:   progress.UpdateRequest(subject, value),
	}

	h.logger.Debug("progress update formatted", map[string]interface{}{
		"subject":  subject,
		"progress": value,
	})

	return output, nil
}

// parseMessage reads a confirmation sentence, a "Subject: NN%" line or a
// bare "Subject: NN". Out-of-range numbers are returned for validation to
// reject.
func parseMessage(message string) (string, float64, bool) {
	extracted := progress.Extract(payload.Text(message))
	if extracted.Kind == models.ProgressKindSuccessMessage && extracted.Subject != "" {
		return extracted.Subject, float64(extracted.ProgressPercent), true
	}
	if len(extracted.Subjects) == 1 {
		for name, sp := range extracted.Subjects {
			return name, float64(sp.ProgressPercent), true
		}
	}

	m := messagePattern.FindStringSubmatch(message)
	if m == nil {
		return "", 0, false
	}
	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), value, true
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
