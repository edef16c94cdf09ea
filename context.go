package blsloader

import (
	"context"
	"time"
)

type contextKey string

const (
	runKey contextKey = "run"
)

type runInfo struct {
	id      string
	started time.Time
}

// withRun marks ctx as belonging to a run started now.
func withRun(ctx context.Context) context.Context {
	now := time.Now()
	return context.WithValue(ctx, runKey, runInfo{
		id:      now.UTC().Format("20060102T150405.000Z"),
		started: now,
	})
}

func runFrom(ctx context.Context) (runInfo, bool) {
	r, ok := ctx.Value(runKey).(runInfo)
	return r, ok
}
