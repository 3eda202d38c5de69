package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/models"
)

type failingSource struct{}

func (failingSource) TodaySummary(context.Context) (TodaySummary, error) {
	return TodaySummary{}, errors.New("db down")
}

func TestOccupancyMonitorTick(t *testing.T) {
	env := newTestEnv(t, false)
	env.seed(t, today, models.MealLunch, 7, models.StatusConfirmed)

	monitor := NewOccupancyMonitor(env.service, env.broadcaster, time.Second)
	monitor.Tick()

	require.Equal(t, []string{hub.EventOccupancyUpdate}, env.broadcaster.Events())
	occ, ok := env.broadcaster.messages[0].Data.(Occupancy)
	require.True(t, ok)
	assert.Equal(t, today, occ.Date)
	assert.Equal(t, 7, occ.Periods[1].Confirmed)
}

func TestOccupancyMonitorSkipsOnError(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	NewOccupancyMonitor(failingSource{}, broadcaster, time.Second).Tick()
	assert.Empty(t, broadcaster.Events())
}

func TestOccupancyMonitorStartStop(t *testing.T) {
	env := newTestEnv(t, false)
	monitor := NewOccupancyMonitor(env.service, env.broadcaster, 10*time.Millisecond)
	monitor.Start()

	require.Eventually(t, func() bool { return len(env.broadcaster.Events()) > 0 }, time.Second, 5*time.Millisecond)
	monitor.Stop()
	monitor.Stop()
}
