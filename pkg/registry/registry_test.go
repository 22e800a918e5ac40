package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant-workers/internal/common/errors"
	ftr "study-assistant-workers/internal/workers/study-tools/fetch-tool-response"
	fpu "study-assistant-workers/internal/workers/study-tools/format-progress-update"
	ism "study-assistant-workers/internal/workers/study-tools/index-study-material"
	nr "study-assistant-workers/internal/workers/study-tools/normalize-response"
	rp "study-assistant-workers/internal/workers/study-tools/record-progress"
)

const shippedRegistry = "../../configs/activity-registry.json"

func TestShippedRegistry(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistry)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{ftr.TaskType, nr.TaskType, rp.TaskType, ism.TaskType, fpu.TaskType} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)

		for _, code := range a.ErrorCodes {
			assert.Contains(t, bpmnCodes(), code, "%s declares unknown error code", taskType)
		}
	}
}

func TestActivity_ValidateInput(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistry)
	require.NoError(t, err)

	fetch, ok := reg.Find(ftr.TaskType)
	require.True(t, ok)

	problems, err := fetch.ValidateInput(map[string]interface{}{"action": "quiz", "input": "cells"})
	require.NoError(t, err)
	assert.Empty(t, problems)

	problems, err = fetch.ValidateInput(map[string]interface{}{"action": " Study_Plan ", "processTitle": "extra variables pass"})
	require.NoError(t, err)
	assert.Empty(t, problems)

	problems, err = fetch.ValidateInput(map[string]interface{}{"action": "translate"})
	require.NoError(t, err)
	assert.NotEmpty(t, problems)

	problems, err = (&Activity{}).ValidateInput(map[string]interface{}{"anything": 1})
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestValidate(t *testing.T) {
	valid := func() Activity {
		return Activity{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", ImplementationStatus: "planned", Timeout: "5s"}
	}

	tests := []struct {
		name    string
		mutate  func(r *ActivityRegistry)
		wantErr string
	}{
		{name: "ok", mutate: func(r *ActivityRegistry) {}},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, wantErr: "no activities"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) {
			b := valid()
			b.TaskType = "b"
			r.Activities = append(r.Activities, b)
		}, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) {
			b := valid()
			b.ID = "b"
			r.Activities = append(r.Activities, b)
		}, wantErr: "duplicate task type"},
		{name: "unknown status", mutate: func(r *ActivityRegistry) { r.Activities[0].ImplementationStatus = "done" }, wantErr: "unknown status"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "ten seconds" }, wantErr: "invalid timeout"},
		{name: "bad schema", mutate: func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 12}
		}, wantErr: "input schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Version: "1", Activities: []Activity{valid()}}
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	reg := &ActivityRegistry{Version: "2", Activities: []Activity{{ID: "x", TaskType: "x"}}}

	require.NoError(t, reg.Save(path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg, loaded)
}

func bpmnCodes() []string {
	out := make([]string, 0, len(errors.BPMNErrorMapping))
	for _, code := range errors.BPMNErrorMapping {
		out = append(out, code)
	}
	return out
}
