package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/metrics"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	result, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	}, "publish")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("deadline exceeded")
	}, "complete")

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	std := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeEngineUnavailable, std.Code)
	assert.Equal(t, "complete", std.Metadata["operation"])
}

func TestExecuteWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("NOT_FOUND: process definition not found")
	}, "create-instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeInternal, errors.Normalize(err).Code)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("Connection Reset by peer")))
	assert.True(t, isRetryableZeebeError(stderrors.New("RESOURCE_EXHAUSTED")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"
	called := false

	handler := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	})

	handler(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: taskType}})

	assert.True(t, called)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.WorkerJobDuration), 1)
}

func TestRejectInvalidInput(t *testing.T) {
	requireAction := func(vars map[string]interface{}) ([]string, error) {
		if _, ok := vars["action"]; !ok {
			return []string{"action is required"}, nil
		}
		return nil, nil
	}
	brokenSchema := func(map[string]interface{}) ([]string, error) {
		return nil, stderrors.New("schema does not compile")
	}

	tests := []struct {
		name        string
		validate    InputValidator
		variables   string
		wantHandled bool
		wantCode    errors.ErrorCode
	}{
		{name: "valid", validate: requireAction, variables: `{"action":"quiz"}`, wantHandled: true},
		{name: "schema violation", validate: requireAction, variables: `{"input":"cells"}`, wantCode: errors.ErrCodeInvalidInput},
		{name: "not an object", validate: requireAction, variables: `[1,2]`, wantHandled: true},
		{name: "validator error", validate: brokenSchema, variables: `{}`, wantHandled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			var failed error

			handler := RejectInvalidInput("reject-test", tt.validate,
				func(_ worker.JobClient, _ entities.Job, err error) { failed = err },
				logger.NewTestLogger(t),
				func(worker.JobClient, entities.Job) { handled = true },
			)
			handler(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 9, Variables: tt.variables}})

			assert.Equal(t, tt.wantHandled, handled)
			if tt.wantCode == "" {
				assert.NoError(t, failed)
				return
			}
			require.Error(t, failed)
			assert.Equal(t, tt.wantCode, errors.Normalize(failed).Code)
			assert.Contains(t, errors.Normalize(failed).Details, "action is required")
		})
	}
}
