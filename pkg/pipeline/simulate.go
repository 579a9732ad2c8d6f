package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/observability"
	"github.com/matzehuels/flowspace/pkg/physics"
)

// checkEvery is how many ticks run between context checks.
const checkEvery = 256

// Simulate advances charts by ticks steps on a virtual clock starting at
// [Epoch] and returns the last frame. The result depends only on the
// charts, the parameters and the tick count.
func Simulate(ctx context.Context, charts []*flowchart.Flowchart, params physics.Params, ticks int) (frame.Frame, error) {
	sim := physics.New(params)
	hooks := observability.Simulation()

	var last physics.Frame
	for i := 1; i <= ticks; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return frame.Frame{}, err
			}
		}
		started := time.Now()
		last = sim.Tick(Epoch.Add(time.Duration(i)*TickInterval), charts)
		hooks.OnTick(ctx, last.Tick, len(charts), len(last.Updates), time.Since(started))
	}
	return frame.FromTick(last, charts), nil
}

// TotalEnergy sums [physics.Energy] over charts.
func TotalEnergy(charts []*flowchart.Flowchart) float64 {
	e := 0.0
	for _, fc := range charts {
		e += physics.Energy(fc)
	}
	return e
}
