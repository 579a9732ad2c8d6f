package cli

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/pipeline"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// watchCommand creates the watch command, which runs the simulation live in
// the terminal.
func (c *CLI) watchCommand() *cobra.Command {
	var fps int

	cmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Watch flowcharts settle in the terminal",
		Long: `Watch runs the simulation live and draws a projection of the selected
flowchart. Nodes can be isolated to show only their neighbourhood.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config
			if fps == 0 {
				fps = cfg.Server.FPS
			}

			_, blocks, err := pipeline.ReadDocument(c.pipelineOptions(args[0]))
			if err != nil {
				return err
			}

			sc := scene.New()
			loader := &scene.Loader{
				Scene:       sc,
				Logger:      c.Logger,
				Concurrency: cfg.Source.Concurrency,
				Build:       cfg.Source.BuildOptions(),
			}
			// The terminal belongs to bubbletea while the program runs.
			c.Logger.SetOutput(io.Discard)
			reports := loader.Start(ctx, blocks)

			model := NewWatchModel(sc, physics.New(cfg.Simulation.Params), fps, reports)
			_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 0, "simulation ticks per second (default from config)")
	return cmd
}
