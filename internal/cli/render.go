package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/pipeline"
	"github.com/matzehuels/flowspace/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path (or base path for multiple outputs)
	formats    []string // output formats: svg, png, dot, json
	flowchart  string   // flowchart id or name; empty renders all
	detailed   bool     // add archetype and parent to labels
	showHidden bool     // draw isolated-away entities faded
	scale      float64  // points per world unit
	ticks      int      // ticks to simulate when rendering a document
	noCache    bool
}

// renderCommand creates the render command, which projects flowcharts onto
// flat node-link diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <document|frame.json>",
		Short: "Render flowcharts to SVG, PNG or DOT",
		Long: `Render flowcharts as flat node-link diagrams. The input is either a frame
written by 'flowspace simulate' or a document, which is simulated first.

Each flowchart is written to its own file unless --flowchart selects one.`,
		Example: `  flowspace render design.md
  flowspace render design.frame.json -f svg,png --flowchart Checkout
  flowspace render design.md -f dot -o out/design`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if err := errors.ValidateFormat(f, pipeline.Formats...); err != nil {
					return err
				}
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single output) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.flowchart, "flowchart", "", "render only the flowchart with this id or name")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show archetype and parent in labels")
	cmd.Flags().BoolVar(&opts.showHidden, "hidden", false, "draw hidden entities faded instead of omitting them")
	cmd.Flags().Float64Var(&opts.scale, "scale", nodelink.DefaultScale, "points per world unit")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "ticks to simulate for documents (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	f, err := c.loadFrame(cmd, runner, input, opts.ticks)
	if err != nil {
		return err
	}
	logger.Infof("Rendering %d flowcharts from %s", len(f.Flowcharts), input)

	targets, err := renderTargets(f, opts.flowchart)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)
	single := len(opts.formats) == 1 && len(targets) == 1
	for _, format := range opts.formats {
		if format == pipeline.FormatJSON {
			path := outputPath(base, "", format, opts.output, single)
			if err := writeArtifact(ctx, runner, f, pipeline.RenderOptions{Format: format}, path); err != nil {
				return err
			}
			continue
		}
		for _, fc := range targets {
			suffix := ""
			if len(targets) > 1 {
				suffix = "-" + slug(fc)
			}
			path := outputPath(base, suffix, format, opts.output, single)
			ropts := pipeline.RenderOptions{
				Format:    format,
				Flowchart: fc.ID,
				Options: nodelink.Options{
					Scale:      opts.scale,
					Detailed:   opts.detailed,
					ShowHidden: opts.showHidden,
				},
			}
			if err := writeArtifact(ctx, runner, f, ropts, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadFrame reads a frame file or simulates a document.
func (c *CLI) loadFrame(cmd *cobra.Command, runner *pipeline.Runner, input string, ticks int) (frame.Frame, error) {
	if strings.HasSuffix(input, ".json") {
		f, err := frame.ReadFile(input)
		if os.IsNotExist(err) {
			return frame.Frame{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "frame %s", input)
		}
		return f, err
	}
	popts := c.pipelineOptions(input)
	if ticks > 0 {
		popts.Ticks = ticks
	}
	res, err := c.simulate(cmd, runner, popts)
	if err != nil {
		return frame.Frame{}, err
	}
	return res.Frame, nil
}

// renderTargets returns the flowcharts to render.
func renderTargets(f frame.Frame, key string) ([]*frame.Flowchart, error) {
	if key != "" {
		fc, err := pipeline.Select(f, key)
		if err != nil {
			return nil, err
		}
		return []*frame.Flowchart{fc}, nil
	}
	if len(f.Flowcharts) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "frame has no flowcharts")
	}
	out := make([]*frame.Flowchart, len(f.Flowcharts))
	for i := range f.Flowcharts {
		out[i] = &f.Flowcharts[i]
	}
	return out, nil
}

func writeArtifact(ctx context.Context, runner *pipeline.Runner, f frame.Frame, opts pipeline.RenderOptions, path string) error {
	data, cached, err := runner.Render(ctx, f, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.Format, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("wrote artifact", "path", path, "bytes", len(data), "cached", cached)
	printFile(path)
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input (and ".frame" for
// frame files). If output has a format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, ".frame")
	}
	ext := filepath.Ext(output)
	for _, f := range pipeline.Formats {
		if ext == "."+f {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// outputPath returns the file for one artifact. A single artifact with an
// explicit output path is written there verbatim.
func outputPath(base, suffix, format, output string, single bool) string {
	if single && output != "" && filepath.Ext(output) != "" {
		return output
	}
	ext := format
	if format == pipeline.FormatJSON {
		ext = "frame.json"
	}
	return base + suffix + "." + ext
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug names a flowchart in file names: its name, lowercased and dashed,
// or its index when it has no usable name.
func slug(fc *frame.Flowchart) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(fc.Name), "-"), "-")
	if s == "" {
		return fmt.Sprintf("%d", fc.Index)
	}
	return s
}
