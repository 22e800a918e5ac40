// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"study-assistant-workers/internal/common/config"
	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
)

type JobHandler func(client worker.JobClient, job entities.Job)

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled in configuration.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) *CamundaWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &CamundaWorker{worker: jobWorker, logger: log, taskType: taskType}
}

// Instrument tracks in-flight jobs and handler duration per task type.
// Completion and failure counters are recorded by the handlers themselves.
func Instrument(taskType string, handler JobHandler) JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		start := time.Now()
		defer func() {
			active.Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}()

		handler(client, job)
	}
}

// InputValidator reports schema violations in a job's variables.
type InputValidator func(vars map[string]interface{}) ([]string, error)

// FailureFunc reports a job that will not reach its handler.
type FailureFunc func(client worker.JobClient, job entities.Job, err error)

// FailWith counts the failure and hands it to the error handler, the same
// way the worker handlers fail their own jobs.
func FailWith(taskType string, errs *errors.ErrorHandler) FailureFunc {
	return func(client worker.JobClient, job entities.Job, err error) {
		metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.Normalize(err).Code)).Inc()
		errs.HandleJobError(context.Background(), client, job, err)
	}
}

// RejectInvalidInput checks job variables before handler runs. Jobs that
// break the schema fail with INVALID_INPUT. Variables that are not a JSON
// object, or a validator that cannot run, are left to the handler.
func RejectInvalidInput(taskType string, validate InputValidator, fail FailureFunc, log logger.Logger, handler JobHandler) JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		var vars map[string]interface{}
		if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
			handler(client, job)
			return
		}

		problems, err := validate(vars)
		if err != nil {
			log.Warn("input schema check skipped", map[string]interface{}{
				"taskType": taskType,
				"error":    err.Error(),
			})
			handler(client, job)
			return
		}
		if len(problems) > 0 {
			fail(client, job, errors.NewInvalidInputError(strings.Join(problems, "; ")))
			return
		}
		handler(client, job)
	}
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
