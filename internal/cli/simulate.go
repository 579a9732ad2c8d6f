package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/pipeline"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// simulateOpts holds the command-line flags for the simulate command.
type simulateOpts struct {
	output  string
	ticks   int
	noCache bool
	refresh bool
}

// simulateCommand creates the simulate command, which runs a document
// headless and writes the final frame as JSON.
func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOpts{}

	cmd := &cobra.Command{
		Use:   "simulate <document>",
		Short: "Run the layout simulation and write the settled frame as JSON",
		Long: `Run the layout simulation for every flowchart block in a markdown (or YAML)
document and write the frame reached after --ticks steps.

Runs use a virtual clock, so the same document, seed, tick count and
parameters always produce the same frame. Frames are cached.`,
		Example: `  flowspace simulate design.md
  flowspace simulate design.md --ticks 5000 -o design.frame.json
  flowspace simulate checkout.yaml --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <document>.frame.json, - for stdout)")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "number of ticks to simulate (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the frame cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached frame exists")

	return cmd
}

func (c *CLI) runSimulate(cmd *cobra.Command, path string, opts simulateOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions(path)
	popts.Refresh = opts.refresh
	if opts.ticks > 0 {
		popts.Ticks = opts.ticks
	}

	res, err := c.simulate(cmd, runner, popts)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = framePath(path)
	}
	if out == "-" {
		return frame.Write(res.Frame, cmd.OutOrStdout())
	}
	if err := frame.WriteFile(res.Frame, out); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	printSuccess("Simulated %d ticks", res.Frame.Tick)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.CacheHit)
	printFile(out)
	printNextStep("Render it", appName+" render "+out)
	return nil
}

// simulate runs the pipeline behind a spinner and reports blocks that did
// not load. It fails only when nothing loaded.
func (c *CLI) simulate(cmd *cobra.Command, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	prog := newProgress(loggerFromContext(cmd.Context()))
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Simulating %d ticks...", opts.Ticks))
	spinner.Start()
	res, err := runner.Simulate(cmd.Context(), opts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %s", res.Stats))

	printFailures(res.Report)
	if len(res.Frame.Flowcharts) == 0 {
		return nil, fmt.Errorf("no flowchart could be built: %w", res.Report.Err())
	}
	return res, nil
}

func printFailures(r scene.Report) {
	for _, f := range r.Failures {
		printWarning("skipped block %s (line %d)", f.Block.Label(), f.Block.Line)
		printDetail("%v", f.Err)
	}
}

// framePath derives the default frame output path from a document path.
func framePath(doc string) string {
	return strings.TrimSuffix(doc, filepath.Ext(doc)) + ".frame.json"
}
