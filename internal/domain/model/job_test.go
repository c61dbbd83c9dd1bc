package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType_Valid(t *testing.T) {
	assert.True(t, JobTypeAutoFlow.Valid())
	assert.True(t, JobTypeLogin.Valid())
	assert.False(t, JobType("unknown").Valid())
	assert.False(t, JobType("").Valid())
}

func TestJobType_UnmarshalText(t *testing.T) {
	var jt JobType
	err := jt.UnmarshalText([]byte(" Auto_Flow "))
	require.NoError(t, err)
	assert.Equal(t, JobTypeAutoFlow, jt)

	err = jt.UnmarshalText([]byte("browser"))
	assert.Error(t, err)
}

func TestJobStatus_Valid(t *testing.T) {
	assert.True(t, JobStatusPending.Valid())
	assert.True(t, JobStatusRunning.Valid())
	assert.True(t, JobStatusCompleted.Valid())
	assert.True(t, JobStatusFailed.Valid())
	assert.False(t, JobStatus("paused").Valid())
}

func TestScheduledJob_Validate(t *testing.T) {
	valid := func() ScheduledJob {
		return ScheduledJob{
			ID:             "job-1",
			ShopID:         "shop-1",
			Type:           JobTypeAutoFlow,
			CronExpression: "*/5 * * * *",
		}
	}

	tests := []struct {
		name     string
		mutate   func(*ScheduledJob)
		errorMsg string
	}{
		{
			name:   "valid job",
			mutate: func(*ScheduledJob) {},
		},
		{
			name:     "missing id",
			mutate:   func(j *ScheduledJob) { j.ID = "" },
			errorMsg: "job id is required",
		},
		{
			name:     "missing shop id",
			mutate:   func(j *ScheduledJob) { j.ShopID = "" },
			errorMsg: "shop id is required",
		},
		{
			name:     "invalid type",
			mutate:   func(j *ScheduledJob) { j.Type = "browser" },
			errorMsg: "invalid job type",
		},
		{
			name:     "blank cron expression",
			mutate:   func(j *ScheduledJob) { j.CronExpression = "   " },
			errorMsg: "cron expression is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid()
			tt.mutate(&job)

			err := job.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.errorMsg, err.Error())
		})
	}
}
