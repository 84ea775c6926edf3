package lib

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingHandler struct {
	slog.Handler
	count atomic.Int32
}

func (c *countingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (c *countingHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message == "Still loading" {
		c.count.Add(1)
	}
	return nil
}

func useCountingHandler(t *testing.T) *countingHandler {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	handler := &countingHandler{}
	slog.SetDefault(slog.New(handler))
	return handler
}

func TestHeartbeats_LogsAfterInitialDelay(t *testing.T) {
	handler := useCountingHandler(t)

	stop := NewHeartbeats(20*time.Millisecond, 20*time.Millisecond, "Still loading", slog.String("table", "dim_employee")).Start()
	assert.Eventually(t, func() bool { return handler.count.Load() >= 2 }, time.Second, 5*time.Millisecond)
	stop()
}

func TestHeartbeats_NothingBeforeInitialDelay(t *testing.T) {
	handler := useCountingHandler(t)

	stop := NewHeartbeats(time.Hour, time.Millisecond, "Still loading").Start()
	time.Sleep(20 * time.Millisecond)
	stop()
	assert.Zero(t, handler.count.Load())
}

func TestHeartbeats_Stop(t *testing.T) {
	handler := useCountingHandler(t)

	stop := NewHeartbeats(0, 5*time.Millisecond, "Still loading").Start()
	assert.Eventually(t, func() bool { return handler.count.Load() >= 1 }, time.Second, time.Millisecond)
	stop()

	logged := handler.count.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, logged, handler.count.Load())
}
