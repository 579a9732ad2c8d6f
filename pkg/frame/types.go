package frame

import (
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/physics"
)

// =============================================================================
// Frame - Serialized Simulator Output
// =============================================================================

// Frame is the canonical serialization of one simulator tick. It is used for
// frame files, the HTTP API and the settled-frame cache.
//
// Vectors are [x, y, z] arrays and orientations are [x, y, z, w]
// quaternions, matching what browser 3D libraries expect.
type Frame struct {
	Tick       uint64      `json:"tick"`
	Time       time.Time   `json:"time"`
	Flowcharts []Flowchart `json:"flowcharts"`
}

// Flowchart holds the entities of one diagram.
type Flowchart struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Index     int      `json:"index"`
	Isolated  string   `json:"isolated,omitempty"`
	Nodes     []Entity `json:"nodes"`
	Subgraphs []Entity `json:"subgraphs,omitempty"`
	Edges     []Entity `json:"edges,omitempty"`
}

// Entity is the spatial state of one node, subgraph or edge.
type Entity struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	// Parent is the enclosing subgraph id, empty at the top level.
	Parent string `json:"parent,omitempty"`
	// From and To are set on edges only.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Archetype string `json:"archetype,omitempty"`
	Color     string `json:"color,omitempty"`

	Position    Vec3    `json:"position"`
	Orientation Quat    `json:"orientation"`
	Scale       Vec3    `json:"scale"`
	Visible     bool    `json:"visible"`
	Segments    []Vec3  `json:"segments,omitempty"`
	Radius      float64 `json:"radius,omitempty"`

	Shape  flowchart.Shape `json:"shape,omitempty"`
	Stroke string          `json:"stroke,omitempty"`
	Arrow  string          `json:"arrow,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (e *Entity) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.ID
}

// Vec3 is an [x, y, z] triple.
type Vec3 [3]float64

// Quat is an [x, y, z, w] quaternion.
type Quat [4]float64

// Vec returns v as an r3.Vec.
func (v Vec3) Vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// Number returns q as a quat.Number.
func (q Quat) Number() quat.Number {
	return quat.Number{Real: q[3], Imag: q[0], Jmag: q[1], Kmag: q[2]}
}

// =============================================================================
// physics.Frame → Frame Conversion
// =============================================================================

// FromTick groups the updates of a simulator frame by flowchart and adds
// the static structure (parents, endpoints, styles) from charts. Updates for
// flowcharts not in charts are dropped. Non-finite numbers are written as 0
// so the result always encodes.
func FromTick(f physics.Frame, charts []*flowchart.Flowchart) Frame {
	out := Frame{Tick: f.Tick, Time: f.Time, Flowcharts: make([]Flowchart, 0, len(charts))}
	index := make(map[string]int, len(charts))
	meta := make([]chartMeta, len(charts))
	for i, fc := range charts {
		index[fc.ID] = i
		meta[i] = newChartMeta(fc)
		out.Flowcharts = append(out.Flowcharts, Flowchart{
			ID:       fc.ID,
			Name:     fc.Name,
			Index:    fc.Index,
			Isolated: fc.Isolated(),
			Nodes:    []Entity{},
		})
	}

	edgeIndex := make([]int, len(charts))
	for _, u := range f.Updates {
		i, ok := index[u.Flowchart]
		if !ok {
			continue
		}
		fc, m := charts[i], meta[i]
		e := Entity{
			ID:          u.ID,
			Label:       u.Label,
			Archetype:   u.Archetype,
			Color:       u.Color,
			Position:    vec(u.Position),
			Orientation: orientation(u.Orientation),
			Scale:       vec(u.Scale),
			Visible:     u.Visible,
		}
		dst := &out.Flowcharts[i]
		switch u.Entity {
		case physics.EntityNode:
			e.Parent = m.parent[u.ID]
			if id, err := fc.Lookup(u.ID); err == nil {
				b := fc.Body(id)
				e.Radius = clean(b.RadiusCollision)
				e.Shape = fc.Leaves[b.Ref].Vertex.Shape
			}
			dst.Nodes = append(dst.Nodes, e)
		case physics.EntitySubgraph:
			e.Parent = m.parent[u.ID]
			e.Radius = clean(u.Scale.X)
			dst.Subgraphs = append(dst.Subgraphs, e)
		case physics.EntityEdge:
			if k := edgeIndex[i]; k < len(fc.Edges) {
				rec := fc.Edges[k].Record
				e.From, e.To = rec.Start, rec.End
				e.Stroke, e.Arrow = string(rec.Stroke), string(rec.Arrow)
			}
			edgeIndex[i]++
			for _, s := range u.Segments {
				e.Segments = append(e.Segments, vec(s))
			}
			dst.Edges = append(dst.Edges, e)
		}
	}
	return out
}

type chartMeta struct {
	parent map[string]string
}

func newChartMeta(fc *flowchart.Flowchart) chartMeta {
	m := chartMeta{parent: make(map[string]string, len(fc.Bodies))}
	for _, c := range fc.Containers[1:] {
		for _, child := range c.Children {
			m.parent[fc.Body(child).ID] = c.Record.ID
		}
	}
	return m
}

func clean(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func vec(v r3.Vec) Vec3 { return Vec3{clean(v.X), clean(v.Y), clean(v.Z)} }

func orientation(q quat.Number) Quat {
	return Quat{clean(q.Imag), clean(q.Jmag), clean(q.Kmag), clean(q.Real)}
}
