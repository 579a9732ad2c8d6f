package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowspace/pkg/cache"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/observability"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// FrameTTL and RenderTTL override the cache defaults when non-zero.
	FrameTTL  time.Duration
	RenderTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		FrameTTL:  cache.TTLFrame,
		RenderTTL: cache.TTLRender,
	}
}

// Result contains the outputs of a simulate run.
type Result struct {
	Frame frame.Frame
	// Report is empty when the frame came from the cache.
	Report   scene.Report
	Stats    Stats
	CacheHit bool
}

// Simulate loads the document, runs the simulation and returns the final
// frame. Settled frames are cached when every block loaded.
func (r *Runner) Simulate(ctx context.Context, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	src, blocks, err := ReadDocument(opts)
	if err != nil {
		return nil, err
	}

	cacheable := opts.Parser == nil
	key := r.frameKey(src, opts)
	hooks := observability.Cache()
	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if f, err := frame.Unmarshal(data); err == nil {
				hooks.OnCacheHit(ctx, "frame")
				r.Logger.Info("frame from cache", "ticks", opts.Ticks, "flowcharts", len(f.Flowcharts))
				return &Result{Frame: f, Stats: frameStats(f), CacheHit: true}, nil
			}
			// Undecodable entries are recomputed and overwritten.
		} else if err != nil {
			r.Logger.Warn("cache lookup failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, "frame")
	}

	started := time.Now()
	sc, report, err := loadBlocks(ctx, blocks, opts)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(started)
	charts := sc.Snapshot()

	started = time.Now()
	f, err := Simulate(ctx, charts, opts.Params, opts.Ticks)
	if err != nil {
		return nil, err
	}

	stats := frameStats(f)
	stats.LoadTime = loadTime
	stats.SimulateTime = time.Since(started)
	stats.Energy = TotalEnergy(charts)
	r.Logger.Info("simulated", "ticks", opts.Ticks, "flowcharts", stats.Flowcharts, "energy", stats.Energy, "elapsed", stats.SimulateTime)

	if cacheable && len(report.Failures) == 0 {
		if data, err := frame.Marshal(f); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.FrameTTL); err != nil {
				r.Logger.Warn("cache write failed", "err", err)
			} else {
				hooks.OnCacheSet(ctx, "frame", len(data))
			}
		}
	}

	return &Result{Frame: f, Report: report, Stats: stats}, nil
}

// Render produces an artifact with caching. The bool reports a cache hit.
func (r *Runner) Render(ctx context.Context, f frame.Frame, opts RenderOptions) ([]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	if opts.Format == FormatJSON {
		data, err := frame.Marshal(f)
		return data, false, err
	}

	frameData, err := frame.Marshal(f)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RenderKey(cache.Hash(frameData), cache.RenderKeyOpts{
		Format:     opts.Format,
		Flowchart:  opts.Flowchart,
		Scale:      opts.Scale,
		Detailed:   opts.Detailed,
		ShowHidden: opts.ShowHidden,
	})

	hooks := observability.Cache()
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, "render")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "render")

	data, err := Render(ctx, f, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, r.RenderTTL); err == nil {
		hooks.OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) frameKey(src []byte, opts Options) string {
	params := cache.HashJSON(struct {
		Params any `json:"params"`
		Build  any `json:"build"`
	}{opts.Params, opts.Build})
	return r.Keyer.FrameKey(cache.Hash(src), cache.FrameKeyOpts{
		Ticks:      opts.Ticks,
		Seed:       int64(opts.Build.Seed),
		ParamsHash: params,
		Lang:       opts.Lang,
	})
}

func frameStats(f frame.Frame) Stats {
	s := Stats{Flowcharts: len(f.Flowcharts)}
	for _, fc := range f.Flowcharts {
		s.Nodes += len(fc.Nodes)
		s.Edges += len(fc.Edges)
	}
	return s
}
