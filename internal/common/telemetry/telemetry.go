package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	toolCallTotal   *expvar.Map
	toolCallErrors  *expvar.Map
	snapshotHits    *expvar.Int
	snapshotMisses  *expvar.Int
	pipelineRuns    *expvar.Int
	pipelineFailed  *expvar.Int
	transformMS     *expvar.Int
	sandboxStarts   *expvar.Int
	sandboxCrashes  *expvar.Int
	detectiveRuns   *expvar.Int
	insightsWritten *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		toolCallTotal = expvar.NewMap("workbench_tool_calls_total")
		toolCallErrors = expvar.NewMap("workbench_tool_call_errors")

		snapshotHits = expvar.NewInt("workbench_snapshot_cache_hits")
		snapshotMisses = expvar.NewInt("workbench_snapshot_cache_misses")

		pipelineRuns = expvar.NewInt("workbench_pipeline_runs_total")
		pipelineFailed = expvar.NewInt("workbench_pipeline_runs_failed")
		transformMS = expvar.NewInt("workbench_transform_latency_ms")

		sandboxStarts = expvar.NewInt("workbench_sandbox_starts_total")
		sandboxCrashes = expvar.NewInt("workbench_sandbox_crashes_total")

		detectiveRuns = expvar.NewInt("workbench_detective_runs_total")
		insightsWritten = expvar.NewInt("workbench_insights_written_total")
	})
}

func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		if sp == nil {
			return
		}
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordToolCall counts one tool invocation, bucketed by tool name.
func RecordToolCall(tool string, failed bool) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(tool))
	if key == "" {
		key = "unknown"
	}
	toolCallTotal.Add(key, 1)
	if failed {
		toolCallErrors.Add(key, 1)
	}
}

func RecordSnapshotLookup(cacheHit bool) {
	ensureInit()
	if cacheHit {
		snapshotHits.Add(1)
		return
	}
	snapshotMisses.Add(1)
}

func RecordPipelineRun(failed bool, transformDuration time.Duration) {
	ensureInit()
	pipelineRuns.Add(1)
	if failed {
		pipelineFailed.Add(1)
	}
	if transformDuration > 0 {
		transformMS.Add(transformDuration.Milliseconds())
	}
}

func RecordSandboxStart() {
	ensureInit()
	sandboxStarts.Add(1)
}

func RecordSandboxCrash() {
	ensureInit()
	sandboxCrashes.Add(1)
}

func RecordDetectiveRun(insights int) {
	ensureInit()
	detectiveRuns.Add(1)
	if insights > 0 {
		insightsWritten.Add(int64(insights))
	}
}

func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}
