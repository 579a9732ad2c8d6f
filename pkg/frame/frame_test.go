package frame

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/physics"
)

func sample(t *testing.T) (physics.Frame, []*flowchart.Flowchart) {
	t.Helper()
	fc, err := flowchart.Build(flowchart.Diagram{
		Name: "orders",
		Vertices: []flowchart.Vertex{
			{ID: "cart", Text: "🛒 cart 🔴", Shape: flowchart.ShapeStadium},
			{ID: "pay", Text: "💾 ledger"},
			{ID: "ship"},
		},
		Edges: []flowchart.EdgeRecord{
			{Start: "cart", End: "pay", Stroke: flowchart.StrokeDotted},
			{Start: "pay", End: "backend", Arrow: flowchart.ArrowOpen},
		},
		Subgraphs: []flowchart.SubgraphRecord{{ID: "backend", Title: "Backend", Members: []string{"pay", "ship"}}},
	}, flowchart.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	charts := []*flowchart.Flowchart{fc}
	sim := physics.New(physics.DefaultParams())
	return sim.Tick(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), charts), charts
}

func TestFromTick(t *testing.T) {
	tick, charts := sample(t)
	f := FromTick(tick, charts)

	if f.Tick != 1 || len(f.Flowcharts) != 1 {
		t.Fatalf("frame = tick %d, %d flowcharts", f.Tick, len(f.Flowcharts))
	}
	fc := f.Flowcharts[0]
	if fc.Name != "orders" || fc.ID != charts[0].ID {
		t.Errorf("flowchart header = %q %q", fc.Name, fc.ID)
	}
	if len(fc.Nodes) != 3 || len(fc.Subgraphs) != 1 || len(fc.Edges) != 2 {
		t.Fatalf("entities = %d nodes, %d subgraphs, %d edges", len(fc.Nodes), len(fc.Subgraphs), len(fc.Edges))
	}

	parents := map[string]string{}
	for _, n := range fc.Nodes {
		parents[n.ID] = n.Parent
	}
	if parents["cart"] != "" || parents["pay"] != "backend" || parents["ship"] != "backend" {
		t.Errorf("parents = %v", parents)
	}

	cart := fc.Nodes[0]
	if cart.Shape != flowchart.ShapeStadium || cart.Color == "" || cart.Radius != 1 {
		t.Errorf("cart = %+v", cart)
	}
	if fc.Nodes[1].Archetype != "storage" {
		t.Errorf("pay archetype = %q, want storage", fc.Nodes[1].Archetype)
	}
	if fc.Subgraphs[0].Label != "Backend" {
		t.Errorf("subgraph label = %q", fc.Subgraphs[0].Label)
	}

	e := fc.Edges[1]
	if e.From != "pay" || e.To != "backend" || e.Arrow != string(flowchart.ArrowOpen) {
		t.Errorf("edge = %+v", e)
	}
	if len(fc.Edges[0].Segments) == 0 {
		t.Error("dotted edge should carry segments")
	}
}

func TestRoundTrip(t *testing.T) {
	tick, charts := sample(t)
	f := FromTick(tick, charts)

	path := filepath.Join(t.TempDir(), "frame.json")
	if err := WriteFile(f, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !got.Time.Equal(f.Time) || got.Tick != f.Tick {
		t.Errorf("header changed: %v/%d", got.Time, got.Tick)
	}
	if got.Flowcharts[0].Nodes[2].Position != f.Flowcharts[0].Nodes[2].Position {
		t.Error("positions should survive the round trip")
	}
	if _, ok := got.Find("orders"); !ok {
		t.Error("Find by name failed")
	}
	if _, ok := got.Find(charts[0].ID); !ok {
		t.Error("Find by id failed")
	}
}

func TestNonFiniteEncodes(t *testing.T) {
	tick, charts := sample(t)
	tick.Updates[0].Position.X = math.NaN()
	tick.Updates[1].Scale.Y = math.Inf(1)

	data, err := Marshal(FromTick(tick, charts))
	if err != nil {
		t.Fatalf("Marshal with NaN: %v", err)
	}
	if strings.Contains(string(data), "NaN") {
		t.Error("NaN should be written as 0")
	}
}

func TestReadRejectsDanglingEdges(t *testing.T) {
	data := `{"tick":1,"flowcharts":[{"id":"x","index":0,"nodes":[{"id":"a"}],"edges":[{"id":"e","from":"a","to":"ghost"}]}]}`
	if _, err := Unmarshal([]byte(data)); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("error = %v, want ErrInvalidFrame", err)
	}
	if _, err := Unmarshal([]byte("{")); err == nil {
		t.Error("truncated JSON should fail")
	}
}
