package scene

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/observability"
	"github.com/matzehuels/flowspace/pkg/source"
)

// DefaultConcurrency is the number of blocks built at once when
// Loader.Concurrency is zero.
const DefaultConcurrency = 4

// Loader parses and builds source blocks into a Scene.
type Loader struct {
	// Parser decodes blocks. Nil means source.RecordParser.
	Parser source.Parser
	// Scene receives every successfully built flowchart.
	Scene *Scene
	// Logger receives one line per block. Nil discards.
	Logger *log.Logger
	// Concurrency bounds the number of blocks in flight.
	Concurrency int
	// Build is passed to flowchart.Build. A block's seed is offset by its
	// index so that identical diagrams in one document do not overlap.
	Build flowchart.BuildOptions
}

// Failure records a block that did not make it into the scene.
type Failure struct {
	Block source.Block
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("block %s: %v", f.Block.Label(), f.Err)
}

// Report summarizes one Load.
type Report struct {
	Loaded   int
	Failures []Failure
	Elapsed  time.Duration
}

// Err returns the first failure, or nil when every block loaded.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0]
}

// Load builds every block and publishes the ones that succeed. Blocks are
// independent: a failing block is logged and reported but never stops its
// siblings. Cancelling ctx stops blocks that have not started; their
// failures carry the context error.
func (l *Loader) Load(ctx context.Context, blocks []source.Block) Report {
	start := time.Now()
	logger := l.logger()
	parser := l.Parser
	if parser == nil {
		parser = source.RecordParser{}
	}
	limit := l.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for _, b := range blocks {
		g.Go(func() error {
			fc, err := l.build(ctx, parser, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				err = errors.Classify(err)
				logger.Warn("skipped diagram", "block", b.Label(), "line", b.Line, "err", err)
				report.Failures = append(report.Failures, Failure{Block: b, Err: err})
				return nil
			}
			l.Scene.Publish(fc)
			report.Loaded++
			logger.Info("published flowchart",
				"block", b.Label(),
				"nodes", fc.NodeCount(),
				"subgraphs", fc.SubgraphCount(),
				"edges", fc.EdgeCount())
			return nil
		})
	}
	_ = g.Wait()

	report.Elapsed = time.Since(start)
	logger.Debug("load complete", "loaded", report.Loaded, "failed", len(report.Failures), "elapsed", report.Elapsed)
	return report
}

// Start runs Load in the background. The channel yields the report once
// and is then closed.
func (l *Loader) Start(ctx context.Context, blocks []source.Block) <-chan Report {
	ch := make(chan Report, 1)
	go func() {
		defer close(ch)
		ch <- l.Load(ctx, blocks)
	}()
	return ch
}

func (l *Loader) build(ctx context.Context, parser source.Parser, b source.Block) (fc *flowchart.Flowchart, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Build()
	hooks.OnBuildStart(ctx, b.Label())
	started := time.Now()
	defer func() {
		var nodes, edges int
		if fc != nil {
			nodes, edges = fc.NodeCount(), fc.EdgeCount()
		}
		hooks.OnBuildComplete(ctx, b.Label(), nodes, edges, time.Since(started), err)
	}()

	d, err := parser.Parse(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if d.Name == "" {
		d.Name = b.Name
	}

	opts := l.Build
	if opts.Seed == 0 {
		opts.Seed = flowchart.DefaultSeed
	}
	opts.Seed += uint64(b.Index)

	fc, err = flowchart.Build(d, opts)
	if err != nil {
		return nil, err
	}
	fc.Index = b.Index
	return fc, nil
}

func (l *Loader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.New(io.Discard)
}
