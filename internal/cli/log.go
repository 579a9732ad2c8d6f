package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowspace/pkg/observability"
)

// newLogger writes leveled, timestamped ("15:04:05.00") lines to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs a message with the time elapsed since it was created.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs "msg (elapsed)", e.g. "Loaded 2 flowcharts (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext falls back to log.Default when ctx carries no logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// tickLogEvery thins OnTick logging to one line per this many ticks.
const tickLogEvery = 500

// logHooks reports build, simulation and cache events at debug level.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnBuildStart(ctx context.Context, block string) {
	h.logger.Debug("building", "block", block)
}

func (h *logHooks) OnBuildComplete(ctx context.Context, block string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "block", block, "elapsed", d, "err", err)
		return
	}
	h.logger.Debug("built", "block", block, "nodes", nodes, "edges", edges, "elapsed", d)
}

func (h *logHooks) OnTick(ctx context.Context, tick uint64, flowcharts, updates int, d time.Duration) {
	if tick%tickLogEvery == 0 {
		h.logger.Debug("tick", "n", tick, "flowcharts", flowcharts, "updates", updates, "elapsed", d)
	}
}

func (h *logHooks) OnIsolate(ctx context.Context, flowchart, entity string, err error) {
	h.logger.Debug("isolate", "flowchart", flowchart, "entity", entity, "err", err)
}

func (h *logHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ observability.BuildHooks      = (*logHooks)(nil)
	_ observability.SimulationHooks = (*logHooks)(nil)
	_ observability.CacheHooks      = (*logHooks)(nil)
)
