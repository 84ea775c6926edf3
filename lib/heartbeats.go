package lib

import (
	"log/slog"
	"time"
)

// Heartbeats logs [msg] every [interval] once [initialDelay] has passed, until stopped.
type Heartbeats struct {
	initialDelay time.Duration
	interval     time.Duration
	msg          string
	attrs        []any
}

func NewHeartbeats(initialDelay, interval time.Duration, msg string, attrs ...any) *Heartbeats {
	return &Heartbeats{
		initialDelay: initialDelay,
		interval:     interval,
		msg:          msg,
		attrs:        attrs,
	}
}

// Start returns a function that stops the heartbeats and waits for the last one to be logged.
func (h *Heartbeats) Start() func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		h.run(time.Now(), done)
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (h *Heartbeats) run(startTime time.Time, done <-chan struct{}) {
	timer := time.NewTimer(h.initialDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-done:
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		slog.Info(h.msg, append([]any{slog.Duration("elapsed", time.Since(startTime))}, h.attrs...)...)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
