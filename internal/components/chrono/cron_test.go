package chrono

import (
	"errors"
	"testing"
	"time"

	"attendance-backend/internal/components/telemetry/teltest"

	"github.com/stretchr/testify/require"
)

func TestStandardCronRejectsBadSpec(t *testing.T) {
	c := NewStandardCron(&teltest.Recorder{}, time.UTC)
	defer c.Stop()

	err := c.Cron("not a cron spec", func() {})
	require.Error(t, err)

	err = c.Cron("@every 1h", func() {})
	require.NoError(t, err)
}

func TestCronLogger(t *testing.T) {
	rec := &teltest.Recorder{}
	logger := cronLogger{tel: rec}

	logger.Info("schedule", "entry", 1)
	logger.Error(errors.New("boom"), "run", "entry", 1)

	debug := rec.Reports("debug", "cron: schedule")
	require.Len(t, debug, 1)
	require.Equal(t, []any{"entry: 1"}, debug[0].Params)

	broken := rec.Reports("broken", "cron")
	require.Len(t, broken, 1)
	require.EqualError(t, broken[0].Params[0].(error), "run: boom")
}

func TestFixedTime(t *testing.T) {
	instant := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	require.Equal(t, instant, FixedTime(instant).Now())
}
