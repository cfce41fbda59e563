package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// OpEvent captures telemetry for one daemon operation (an inbox scan, an
// API reconcile, an upload).
type OpEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives operation events.
type Observer interface {
	ObserveOp(ctx context.Context, event OpEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveOp(context.Context, OpEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes operation events as slog text records to w.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveOp(ctx context.Context, event OpEvent) {
	attrs := make([]any, 0, 6+len(event.Fields)*2)
	attrs = append(attrs,
		"op", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "budgetdash_op", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "budgetdash_op", attrs...)
}
