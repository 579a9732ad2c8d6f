package flowchart

import (
	"errors"
	"testing"
)

func nestedDiagram() Diagram {
	return Diagram{
		Name: "nested",
		Vertices: []Vertex{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
			{ID: "c", Text: "C"},
			{ID: "d", Text: "D"},
			{ID: "outer", Text: "masked by subgraph"},
		},
		Edges: []EdgeRecord{
			{Start: "a", End: "b", Length: 1, Stroke: StrokeNormal, Arrow: ArrowPoint},
			{Start: "c", End: "inner", Length: 2, Stroke: StrokeThick, Arrow: ArrowOpen},
			{Start: "outer", End: "d", Length: 1, Stroke: StrokeDotted, Arrow: ArrowDoublePoint},
		},
		Subgraphs: []SubgraphRecord{
			{ID: "inner", Members: []string{"a", "b"}},
			{ID: "outer", Members: []string{"inner", "c"}},
		},
	}
}

func TestBuildCounts(t *testing.T) {
	fc, err := Build(nestedDiagram(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if fc.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4 (vertex 'outer' is masked)", fc.NodeCount())
	}
	if fc.SubgraphCount() != 2 {
		t.Errorf("SubgraphCount = %d, want 2", fc.SubgraphCount())
	}
	if fc.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", fc.EdgeCount())
	}
	if fc.ID == "" {
		t.Error("flowchart should have an ID")
	}
}

func TestBuildHierarchy(t *testing.T) {
	fc, err := Build(nestedDiagram(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	root := fc.Root()
	want := map[string]bool{"outer": true, "d": true}
	if root.Len() != len(want) {
		t.Fatalf("root has %d children, want %d", root.Len(), len(want))
	}
	for id := range want {
		if _, err := root.Child(id); err != nil {
			t.Errorf("root.Child(%q): %v", id, err)
		}
	}

	outerID, _ := fc.Lookup("outer")
	outer, ok := fc.ContainerOf(outerID)
	if !ok {
		t.Fatal("outer should be a container")
	}
	if _, err := outer.Child("inner"); err != nil {
		t.Errorf("outer should contain inner: %v", err)
	}
	if _, err := outer.Child("c"); err != nil {
		t.Errorf("outer should contain c: %v", err)
	}
	if _, err := outer.Child("a"); !errors.Is(err, ErrUnknownChild) {
		t.Errorf("outer.Child(a) error = %v, want ErrUnknownChild", err)
	}
}

func TestBuildContainmentPartition(t *testing.T) {
	fc, err := Build(nestedDiagram(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	owners := make(map[BodyID]int)
	for _, c := range fc.Containers {
		for _, child := range c.Children {
			owners[child]++
		}
	}
	for id := range fc.Bodies {
		b := BodyID(id)
		if b == RootID {
			if owners[b] != 0 {
				t.Error("root must not be owned")
			}
			continue
		}
		if owners[b] != 1 {
			t.Errorf("body %q owned by %d containers, want 1", fc.Body(b).ID, owners[b])
		}
	}

	seen := make(map[BodyID]bool)
	fc.Walk(func(id BodyID, _ int) {
		if seen[id] {
			t.Errorf("body %q visited twice", fc.Body(id).ID)
		}
		seen[id] = true
	})
	if len(seen) != len(fc.Bodies) {
		t.Errorf("walk reached %d bodies, want %d", len(seen), len(fc.Bodies))
	}
}

func TestBuildRadiiBottomUp(t *testing.T) {
	d := Diagram{
		Vertices: []Vertex{{ID: "a"}, {ID: "screen", Text: "🖥️ console"}},
		Subgraphs: []SubgraphRecord{
			{ID: "inner", Members: []string{"screen"}},
			{ID: "outer", Members: []string{"inner", "a"}},
			{ID: "empty"},
		},
	}
	fc, err := Build(d, BuildOptions{Margin: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	radius := func(id string) float64 {
		b, err := fc.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", id, err)
		}
		return fc.Body(b).RadiusCollision
	}

	if got := radius("inner"); got != 4 {
		t.Errorf("inner radius = %v, want 4 (screen 3 + margin)", got)
	}
	if got := radius("outer"); got != 5 {
		t.Errorf("outer radius = %v, want 5 (inner 4 + margin)", got)
	}
	if got := radius("empty"); got != 1 {
		t.Errorf("empty radius = %v, want 1 (margin only)", got)
	}
	if got := fc.Body(RootID).RadiusCollision; got != 6 {
		t.Errorf("root radius = %v, want 6", got)
	}
}

func TestBuildFirstClaimWins(t *testing.T) {
	d := Diagram{
		Vertices: []Vertex{{ID: "a"}, {ID: "b"}},
		Subgraphs: []SubgraphRecord{
			{ID: "s1", Members: []string{"a"}},
			{ID: "s2", Members: []string{"a", "b"}},
		},
	}
	fc, err := Build(d, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, _ := fc.Lookup("a")
	parent, ok := fc.Parent(a)
	if !ok || parent.Record == nil || parent.Record.ID != "s1" {
		t.Errorf("a should belong to s1")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		d    Diagram
		want error
	}{
		{
			name: "unknown edge endpoint",
			d: Diagram{
				Vertices: []Vertex{{ID: "a"}},
				Edges:    []EdgeRecord{{Start: "a", End: "ghost"}},
			},
			want: ErrUnknownEndpoint,
		},
		{
			name: "unknown member",
			d: Diagram{
				Vertices:  []Vertex{{ID: "a"}},
				Subgraphs: []SubgraphRecord{{ID: "s", Members: []string{"ghost"}}},
			},
			want: ErrUnknownMember,
		},
		{
			name: "self membership",
			d: Diagram{
				Subgraphs: []SubgraphRecord{{ID: "s", Members: []string{"s"}}},
			},
			want: ErrCyclicMembership,
		},
		{
			name: "mutual membership",
			d: Diagram{
				Subgraphs: []SubgraphRecord{
					{ID: "s1", Members: []string{"s2"}},
					{ID: "s2", Members: []string{"s1"}},
				},
			},
			want: ErrCyclicMembership,
		},
		{
			name: "duplicate vertex",
			d:    Diagram{Vertices: []Vertex{{ID: "a"}, {ID: "a"}}},
			want: ErrDuplicateID,
		},
		{
			name: "empty vertex id",
			d:    Diagram{Vertices: []Vertex{{ID: ""}}},
			want: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := Build(tt.d, BuildOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build error = %v, want %v", err, tt.want)
			}
			if fc != nil {
				t.Error("failed build should not return a flowchart")
			}
		})
	}
}

func TestBuildEmptyDiagram(t *testing.T) {
	fc, err := Build(Diagram{}, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(fc.Containers) != 1 || fc.Root().Len() != 0 {
		t.Error("empty diagram should produce only an empty root")
	}
}

func TestBuildEdgeSegments(t *testing.T) {
	fc, err := Build(nestedDiagram(), BuildOptions{LengthScale: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		i        int
		rest     float64
		segments int
	}{
		{0, 4, 8},  // normal arrow_point: segmented
		{1, 8, 0},  // thick arrow_open: solid
		{2, 4, 16}, // dotted double arrow: segmented, doubled
	}
	for _, tt := range tests {
		e := fc.Edges[tt.i]
		if e.RestLength != tt.rest {
			t.Errorf("edge %d RestLength = %v, want %v", tt.i, e.RestLength, tt.rest)
		}
		if e.Segments != tt.segments {
			t.Errorf("edge %d Segments = %d, want %d", tt.i, e.Segments, tt.segments)
		}
	}

	// Edge endpoints may be subgraphs.
	inner, _ := fc.Lookup("inner")
	if fc.Edges[1].B != inner {
		t.Error("edge c -> inner should resolve to the subgraph body")
	}
}

func TestBuildEdgeSegmentsBounded(t *testing.T) {
	fc, err := Build(Diagram{
		Vertices: []Vertex{{ID: "a"}, {ID: "b"}},
		Edges:    []EdgeRecord{{Start: "a", End: "b", Length: 100_000_000, Arrow: ArrowDoublePoint}},
	}, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := fc.Edges[0].Segments; got != MaxSegments {
		t.Errorf("Segments = %d, want %d", got, MaxSegments)
	}
}

func TestBuildDeterministicScatter(t *testing.T) {
	a, _ := Build(nestedDiagram(), BuildOptions{Seed: 7})
	b, _ := Build(nestedDiagram(), BuildOptions{Seed: 7})
	c, _ := Build(nestedDiagram(), BuildOptions{Seed: 8})

	for i := range a.Bodies {
		if a.Bodies[i].Position != b.Bodies[i].Position {
			t.Fatalf("same seed should give same positions (body %d)", i)
		}
	}
	if a.Bodies[1].Position == c.Bodies[1].Position {
		t.Error("different seeds should scatter differently")
	}
	for _, body := range a.Bodies[1:] {
		p := body.Position
		if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 || p.Z < -1 || p.Z > 1 {
			t.Errorf("body %q outside default spread: %v", body.ID, p)
		}
	}
}
