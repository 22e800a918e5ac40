// internal/workers/study-tools/fetch-tool-response/handler.go
package fetchtoolresponse

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"study-assistant-workers/internal/common/errors"
	httpclient "study-assistant-workers/internal/common/http"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
)

const (
	TaskType = "fetch-tool-response"

	maxBodyBytes = 10 << 20
)

type Handler struct {
	config *Config
	client *httpclient.Client
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.Timeout,
			httpclient.WithRetry(config.MaxRetries, config.RetryDelay),
			httpclient.WithRateLimit(config.RateLimit, config.Burst),
		),
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	action, ok := models.ParseAction(strings.ToLower(strings.TrimSpace(input.Action)))
	if !ok {
		return nil, errors.NewUnsupportedActionError(input.Action)
	}
	if action != models.ActionStats && strings.TrimSpace(input.Input) == "" {
		return nil, errors.NewInvalidInputError("input is required")
	}

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	headers := map[string]string{"X-Request-ID": requestID}
	if h.config.APIKey != "" {
		headers["X-API-Key"] = h.config.APIKey
	}
	if input.UserID != "" {
		headers["X-User-ID"] = input.UserID
	}

	start := time.Now()
	body, err := h.call(ctx, action, input, headers)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestDuration.WithLabelValues(string(action), status).Observe(time.Since(start).Seconds())

	if err != nil {
		h.logger.Warn("backend request failed", map[string]interface{}{
			"requestId": requestID,
			"action":    action,
			"error":     err,
		})
		if stderrors.Is(err, httpclient.ErrTimeout) {
			return nil, errors.NewBackendTimeoutError(string(action))
		}
		return nil, errors.NewBackendRequestFailedError(string(action), err)
	}

	output := &Output{
		RequestID:   requestID,
		Action:      string(action),
		RawResponse: payload.DecodeJSON(body),
		FetchedAt:   time.Now().UTC(),
	}
	if envelope, ok := output.RawResponse.(map[string]interface{}); ok {
		output.Sources = sources(envelope["sources"])
		if meta, ok := envelope["metadata"].(map[string]interface{}); ok {
			output.Metadata = meta
		}
	}

	h.logger.Info("tool response fetched", map[string]interface{}{
		"requestId": requestID,
		"action":    action,
		"bytes":     len(body),
		"sources":   len(output.Sources),
	})

	return output, nil
}

// call routes chat to /ask, stats to GET /stats and every other action to
// the tools endpoint.
func (h *Handler) call(ctx context.Context, action models.Action, input *Input, headers map[string]string) ([]byte, error) {
	base := strings.TrimRight(h.config.BackendURL, "/")

	var (
		resp *http.Response
		err  error
	)

	switch action {
	case models.ActionChat:
		reqBody, _ := json.Marshal(map[string]string{"question": input.Input})
		resp, err = h.client.PostJSON(ctx, base+"/ask", reqBody, headers)

	case models.ActionStats:
		target := base + "/stats"
		if input.UserID != "" {
			target += "?" + url.Values{"user_id": {input.UserID}}.Encode()
		}
		resp, err = h.client.GetJSON(ctx, target, headers)

	default:
		reqBody, marshalErr := json.Marshal(ToolRequest{
			Action:  string(action),
			Input:   input.Input,
			Context: input.Context,
			Options: input.Options,
		})
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal tool request: %w", marshalErr)
		}
		resp, err = h.client.PostJSON(ctx, base+h.config.ToolsPath, reqBody, headers)
	}

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func sources(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
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

// fail runs on a fresh context so a job whose deadline expired can still be
// reported.
func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
