package physics

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

// Entity names the kind of object an [Update] applies to.
type Entity string

const (
	EntityNode     Entity = "node"
	EntitySubgraph Entity = "subgraph"
	EntityEdge     Entity = "edge"
)

// Update is the spatial state of one rendered entity after a tick.
//
// Leaf nodes keep unit scale; their geometry is built at archetype size.
// Subgraphs are scaled uniformly by their live collision radius. For edges
// Scale.Y is the axial stretch (gap / rest length) applied to a connector of
// nominal length RestLength whose long axis is +Y, and Segments are offsets
// in that unscaled local frame.
type Update struct {
	Flowchart   string
	ID          string
	Entity      Entity
	Position    r3.Vec
	Orientation quat.Number
	Scale       r3.Vec
	Visible     bool
	Segments    []r3.Vec

	// Appearance hints, constant over the life of an entity.
	Label     string
	Archetype string
	Color     string
}

// Frame is the output of one simulator tick across all flowcharts.
type Frame struct {
	Tick    uint64
	Time    time.Time
	Updates []Update
}

// SegmentOffset is the lateral offset of double-arrow segments from the edge
// axis.
const SegmentOffset = 0.15

var identity = quat.Number{Real: 1}

var up = r3.Vec{Y: 1}

// =============================================================================
// Pass E: placement
// =============================================================================

// Place emits updates for every leaf node, every subgraph, and every edge of
// fc, in that order. The root is not rendered and gets no update.
//
// Leaf nodes face the view, tilted about X by ViewTilt. Subgraphs keep the
// identity orientation.
func (s *Simulator) Place(fc *flowchart.Flowchart, now time.Time) []Update {
	out := make([]Update, 0, len(fc.Leaves)+len(fc.Containers)-1+len(fc.Edges))
	facing := quat.Mul(s.view, s.tilt)
	for _, l := range fc.Leaves {
		b := fc.Body(l.Body)
		out = append(out, Update{
			Flowchart:   fc.ID,
			ID:          b.ID,
			Entity:      EntityNode,
			Position:    b.Position,
			Orientation: facing,
			Scale:       uniform(1),
			Visible:     b.Visible,
			Label:       labelOr(l.Vertex.Text, b.ID),
			Archetype:   l.Archetype.Name,
			Color:       l.Archetype.Color,
		})
	}
	for _, c := range fc.Containers[1:] {
		b := fc.Body(c.Body)
		out = append(out, Update{
			Flowchart:   fc.ID,
			ID:          b.ID,
			Entity:      EntitySubgraph,
			Position:    b.Position,
			Orientation: identity,
			Scale:       uniform(b.RadiusCollision),
			Visible:     b.Visible,
			Label:       labelOr(c.Record.Title, b.ID),
		})
	}
	for i := range fc.Edges {
		out = append(out, s.PlaceEdge(fc, i, now))
	}
	return out
}

// PlaceEdge positions edge i of fc flush between its endpoints: centered in
// the gap between the two attachment surfaces, long axis pointing from
// source to target, stretched to span the gap. Leaves attach at their
// connection radius and subgraphs at their live collision radius.
func (s *Simulator) PlaceEdge(fc *flowchart.Flowchart, i int, now time.Time) Update {
	e := &fc.Edges[i]
	a, b := fc.Body(e.A), fc.Body(e.B)
	u := Update{
		Flowchart:   fc.ID,
		ID:          EdgeID(e, i),
		Entity:      EntityEdge,
		Position:    a.Position,
		Orientation: identity,
		Scale:       r3.Vec{X: 1, Z: 1},
		Visible:     e.Visible,
		Label:       e.Record.Text,
	}

	ra, rb := a.EdgeRadius(), b.EdgeRadius()
	d := r3.Sub(b.Position, a.Position)
	dist := r3.Norm(d)
	if dist == 0 || !finite(dist) {
		return u
	}
	gap := dist - ra - rb

	u.Position = r3.Add(a.Position, r3.Scale((ra+gap/2)/dist, d))
	u.Orientation = fromUnitVectors(up, r3.Scale(1/dist, d))
	if e.RestLength > 0 {
		u.Scale.Y = max(0, gap/e.RestLength)
	}
	u.Segments = s.Segments(e, now)
	return u
}

// Segments returns the local offsets of the decorative flow segments of e at
// time now. Segments cycle along the edge axis within ±RestLength/2 and
// advance toward the target. On double arrows even segments run backwards,
// offset to one side, and odd segments run forwards on the other. Open
// arrows are solid unless dotted, and dotted open arrows do not move.
func (s *Simulator) Segments(e *flowchart.Edge, now time.Time) []r3.Vec {
	if e.Segments == 0 {
		return nil
	}
	ms := float64(now.UnixNano()) / float64(time.Millisecond)
	phase := ms * s.params.FlowRate
	if e.Record.Arrow == flowchart.ArrowOpen {
		phase = 0
	}

	n := float64(e.Segments)
	out := make([]r3.Vec, e.Segments)
	for i := range out {
		dir, x := 1.0, 0.0
		if e.Double() {
			if i%2 == 0 {
				dir, x = -1, SegmentOffset
			} else {
				x = -SegmentOffset
			}
		}
		frac := math.Mod((phase+float64(i))/n, 1)
		if frac < 0 {
			frac++
		}
		out[i] = r3.Vec{X: x, Y: (frac - 0.5) * e.RestLength * dir}
	}
	return out
}

// EdgeID returns the stable identifier of edge i.
func EdgeID(e *flowchart.Edge, i int) string {
	return fmt.Sprintf("%s->%s#%d", e.Record.Start, e.Record.End, i)
}

func uniform(r float64) r3.Vec { return r3.Vec{X: r, Y: r, Z: r} }

func labelOr(label, id string) string {
	if label == "" {
		return id
	}
	return label
}

// fromUnitVectors returns the shortest rotation taking unit vector u onto
// unit vector v.
func fromUnitVectors(u, v r3.Vec) quat.Number {
	w := r3.Dot(u, v) + 1
	if w < 1e-8 {
		// Opposite vectors: rotate half a turn about any perpendicular axis.
		if math.Abs(u.X) > math.Abs(u.Z) {
			return normalize(quat.Number{Imag: -u.Y, Jmag: u.X})
		}
		return normalize(quat.Number{Jmag: -u.Z, Kmag: u.Y})
	}
	c := r3.Cross(u, v)
	return normalize(quat.Number{Real: w, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || !finite(n) {
		return identity
	}
	return quat.Scale(1/n, q)
}

// Rotate applies the rotation q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}
