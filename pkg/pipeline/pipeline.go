// Package pipeline runs documents through the load → simulate → render
// stages shared by the CLI commands.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: extract diagram blocks from a document and build them into a
//     scene (see [Load])
//  2. Simulate: advance the scene a fixed number of ticks on a virtual
//     clock and capture the resulting frame (see [Simulate])
//  3. Render: project one flowchart of the frame (see [Render])
//
// Simulation on a virtual clock is deterministic, so a [Runner] caches
// settled frames keyed by the document content, seed, tick count and
// parameters, and caches rendered projections keyed by the frame.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Simulate(ctx, pipeline.Options{Path: "design.md", Ticks: 2000})
//	svg, err := runner.Render(ctx, res.Frame, pipeline.RenderOptions{Format: "svg"})
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/render/nodelink"
	"github.com/matzehuels/flowspace/pkg/scene"
	"github.com/matzehuels/flowspace/pkg/source"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTicks is the number of ticks simulated before a frame is taken.
	DefaultTicks = 2000

	// MaxTicks bounds a single run.
	MaxTicks = 1_000_000

	// TickInterval is the virtual time between two ticks.
	TickInterval = time.Second / 60
)

// Epoch is the virtual time of tick zero.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG}

// =============================================================================
// Options
// =============================================================================

// Options configures the load and simulate stages.
type Options struct {
	// Path is the markdown or YAML document to load. Ignored when Source
	// is set.
	Path string `json:"path,omitempty"`
	// Source is the document content.
	Source []byte `json:"-"`
	// Lang is the fenced code block info string that marks a diagram.
	Lang string `json:"lang,omitempty"`

	Ticks       int                    `json:"ticks,omitempty"`
	Params      physics.Params         `json:"params"`
	Build       flowchart.BuildOptions `json:"build"`
	Concurrency int                    `json:"concurrency,omitempty"`

	// Refresh bypasses the frame cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	// Parser overrides the block parser. Frames produced with a custom
	// parser are not cached.
	Parser source.Parser `json:"-"`
	Logger *log.Logger   `json:"-"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Lang == "" {
		o.Lang = source.DefaultLang
	}
	if o.Ticks == 0 {
		o.Ticks = DefaultTicks
	}
	if o.Params == (physics.Params{}) {
		o.Params = physics.DefaultParams()
	}
	if o.Concurrency == 0 {
		o.Concurrency = scene.DefaultConcurrency
	}
}

// Validate checks options after defaults are applied.
func (o *Options) Validate() error {
	if o.Path == "" && o.Source == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no document given")
	}
	if o.Ticks < 1 || o.Ticks > MaxTicks {
		return errors.New(errors.ErrCodeInvalidInput, "ticks must be in [1, %d] (got %d)", MaxTicks, o.Ticks)
	}
	if err := o.Params.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parameters")
	}
	return nil
}

// RenderOptions configures the render stage.
type RenderOptions struct {
	// Format is one of [Formats].
	Format string
	// Flowchart selects the flowchart by id or name. Empty means the first.
	Flowchart string
	nodelink.Options
}

// Validate checks the format.
func (o RenderOptions) Validate() error {
	return errors.ValidateFormat(o.Format, Formats...)
}

// =============================================================================
// Results
// =============================================================================

// Stats contains stage timings and sizes.
type Stats struct {
	Flowcharts   int
	Nodes        int
	Edges        int
	LoadTime     time.Duration
	SimulateTime time.Duration
	Energy       float64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d flowcharts, %d nodes, %d edges", s.Flowcharts, s.Nodes, s.Edges)
}
