package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/observability"
)

type instrumented struct {
	next Dispatcher
	mode Mode
}

// Instrument records outcome counters, latency and a log line per dispatch.
func Instrument(next Dispatcher, mode Mode) Dispatcher {
	return &instrumented{next: next, mode: mode}
}

func (d *instrumented) Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error) {
	start := time.Now()
	r, err := d.next.Dispatch(ctx, recipient, body)
	elapsed := time.Since(start)

	observability.DispatchLatency.WithLabelValues(string(d.mode)).Observe(elapsed.Seconds())
	if err != nil {
		observability.Dispatches.WithLabelValues(string(d.mode), "error").Inc()
		slog.Warn("dispatch failed", "mode", d.mode, "duration", elapsed, "err", err)
		return r, err
	}

	observability.Dispatches.WithLabelValues(string(d.mode), "ok").Inc()
	slog.Debug("dispatch ok", "mode", d.mode, "remote_id", r.RemoteID, "duration", elapsed)
	return r, nil
}
