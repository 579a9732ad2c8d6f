// Package server serves a live simulation over HTTP.
//
// One goroutine owns the simulator: it ticks the scene at a fixed rate,
// publishes each frame for readers and applies queued commands (isolation
// toggles, camera changes) between ticks, so flowcharts are never mutated
// concurrently with a tick.
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/frame                           latest frame
//	GET  /api/v1/flowcharts                      flowchart summaries
//	GET  /api/v1/flowcharts/{id}                 one flowchart of the latest frame
//	GET  /api/v1/flowcharts/{id}/render?format=  DOT, SVG or PNG projection
//	POST /api/v1/flowcharts/{id}/isolate         {"entity": "..."}; empty shows all
//	PUT  /api/v1/view                            {"orientation": [x, y, z, w]}
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/num/quat"

	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/observability"
	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// DefaultFPS is the tick rate when Options.FPS is zero.
const DefaultFPS = 60

// ErrStopped is returned for commands issued after the tick loop exited.
var ErrStopped = errors.New("simulation stopped")

// Options configures a Server.
type Options struct {
	FPS    int
	Logger *log.Logger
	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

// Server ticks a scene and serves its frames.
type Server struct {
	scene   *scene.Scene
	sim     *physics.Simulator
	logger  *log.Logger
	fps     int
	timeout time.Duration

	latest atomic.Pointer[frame.Frame]
	cmds   chan command
	done   chan struct{}
}

type command struct {
	fn    func() error
	reply chan error
}

// New creates a server over sc. Flowcharts published to sc later are picked
// up on the next tick.
func New(sc *scene.Scene, params physics.Params, opts Options) *Server {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		scene:   sc,
		sim:     physics.New(params),
		logger:  opts.Logger,
		fps:     opts.FPS,
		timeout: opts.ShutdownTimeout,
		cmds:    make(chan command),
		done:    make(chan struct{}),
	}
}

// Latest returns the most recent frame, or false before the first tick.
func (s *Server) Latest() (*frame.Frame, bool) {
	f := s.latest.Load()
	return f, f != nil
}

// Run ticks until ctx is cancelled. It must be called at most once.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	s.logger.Debug("simulation started", "fps", s.fps)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("simulation stopped", "ticks", s.sim.Ticks())
			return nil
		case cmd := <-s.cmds:
			cmd.reply <- cmd.fn()
		case now := <-ticker.C:
			s.step(ctx, now)
		}
	}
}

func (s *Server) step(ctx context.Context, now time.Time) {
	started := time.Now()
	charts := s.scene.Snapshot()
	tick := s.sim.Tick(now, charts)
	f := frame.FromTick(tick, charts)
	s.latest.Store(&f)
	observability.Simulation().OnTick(ctx, tick.Tick, len(charts), len(tick.Updates), time.Since(started))
}

// do runs fn on the tick goroutine and waits for its result.
func (s *Server) do(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Isolate toggles isolation of entity in the flowchart named by key (id or
// name). An empty entity shows everything.
func (s *Server) Isolate(ctx context.Context, key, entity string) error {
	fc, ok := s.scene.Find(key)
	if !ok {
		return errUnknownFlowchart(key)
	}
	var isolated string
	err := s.do(ctx, func() error {
		if entity == "" {
			fc.ShowAll()
		} else if err := fc.Isolate(entity); err != nil {
			return err
		}
		isolated = fc.Isolated()
		return nil
	})
	observability.Simulation().OnIsolate(ctx, fc.ID, entity, err)
	if err == nil {
		s.logger.Info("isolation changed", "flowchart", fc.Name, "entity", entity, "isolated", isolated)
	}
	return err
}

// SetView changes the camera orientation leaf nodes face.
func (s *Server) SetView(ctx context.Context, q quat.Number) error {
	if quat.Abs(q) == 0 {
		return errBadView
	}
	return s.do(ctx, func() error {
		s.sim.SetView(q)
		return nil
	})
}

// ListenAndServe runs the tick loop and serves HTTP on addr until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(ctx) })
	g.Go(func() error {
		s.logger.Info("serving", "addr", l.Addr().String())
		if err := hs.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
