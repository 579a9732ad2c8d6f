package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowspace/internal/server"
	"github.com/matzehuels/flowspace/pkg/pipeline"
	"github.com/matzehuels/flowspace/pkg/scene"
)

// serveCommand creates the serve command, which runs the simulation live
// and exposes frames over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var fps int

	cmd := &cobra.Command{
		Use:   "serve <document>",
		Short: "Serve a live simulation over HTTP",
		Long: `Serve a live simulation of every flowchart in a document. Ticking starts
immediately; flowcharts appear as they finish building.

Routes:
  GET  /api/v1/frame
  GET  /api/v1/flowcharts
  GET  /api/v1/flowcharts/{id}
  GET  /api/v1/flowcharts/{id}/render?format=svg|png|dot
  POST /api/v1/flowcharts/{id}/isolate   {"entity": "..."}
  PUT  /api/v1/view                      {"orientation": [x, y, z, w]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if fps == 0 {
				fps = cfg.Server.FPS
			}

			opts := c.pipelineOptions(args[0])
			_, blocks, err := pipeline.ReadDocument(opts)
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
			reports := loader.Start(ctx, blocks)
			go func() {
				report := <-reports
				c.Logger.Info("document loaded", "flowcharts", report.Loaded, "failed", len(report.Failures), "elapsed", report.Elapsed)
			}()

			srv := server.New(sc, cfg.Simulation.Params, server.Options{FPS: fps, Logger: c.Logger})
			printInfo("Serving %s on %s", args[0], StyleLink.Render("http://"+addr+"/api/v1/frame"))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().IntVar(&fps, "fps", 0, "simulation ticks per second (default from config)")
	return cmd
}
