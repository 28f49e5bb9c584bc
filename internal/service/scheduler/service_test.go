package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocycle/ecocycle/internal/config"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

func newTestService(cfg config.SchedulerConfig) *Service {
	return NewService(&config.Config{Scheduler: cfg}, nil, logger.New("error", "json", "stdout"))
}

func TestStart_DisabledIsNoOp(t *testing.T) {
	svc := newTestService(config.SchedulerConfig{Enabled: false})

	require.NoError(t, svc.Start())
	assert.Nil(t, svc.cron)

	// Stop without a running cron must not panic.
	svc.Stop()
}

func TestStart_InvalidTimezone(t *testing.T) {
	svc := newTestService(config.SchedulerConfig{
		Enabled:  true,
		Timezone: "Mars/Olympus",
	})

	assert.Error(t, svc.Start())
}

func TestStart_InvalidCronExpression(t *testing.T) {
	svc := newTestService(config.SchedulerConfig{
		Enabled:             true,
		Timezone:            "UTC",
		BadgeEvaluationTime: "not a cron line",
	})

	assert.Error(t, svc.Start())
}

func TestStartAndStop_RegistersJobs(t *testing.T) {
	svc := newTestService(config.SchedulerConfig{
		Enabled:             true,
		Timezone:            "UTC",
		BadgeEvaluationTime: "0 3 * * *",
		ChallengeSweepTime:  "30 3 * * *",
	})

	require.NoError(t, svc.Start())
	require.NotNil(t, svc.cron)
	assert.Len(t, svc.cron.Entries(), 2)

	svc.Stop()
}
