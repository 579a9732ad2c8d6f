package physics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

// Simulator advances flowchart layouts one tick at a time.
//
// A Simulator holds no flowchart state of its own; all positions and
// potentials live in the flowcharts it is handed. It is not safe for
// concurrent use and must not be shared with code that mutates the same
// flowcharts.
type Simulator struct {
	params Params
	view   quat.Number
	tilt   quat.Number
	tick   uint64
}

// New creates a simulator. Callers are expected to have validated p.
func New(p Params) *Simulator {
	half := p.ViewTilt / 2
	return &Simulator{
		params: p,
		view:   identity,
		tilt:   quat.Number{Real: math.Cos(half), Imag: math.Sin(half)},
	}
}

// Params returns the simulator's constants.
func (s *Simulator) Params() Params { return s.params }

// Ticks returns the number of completed ticks.
func (s *Simulator) Ticks() uint64 { return s.tick }

// SetView sets the camera orientation that leaf nodes turn to face.
func (s *Simulator) SetView(q quat.Number) { s.view = normalize(q) }

// Tick runs one full step over every flowchart and returns the resulting
// spatial updates. now drives the edge segment animation only; the layout
// is frame-rate dependent by construction.
func (s *Simulator) Tick(now time.Time, charts []*flowchart.Flowchart) Frame {
	s.tick++
	f := Frame{Tick: s.tick, Time: now}
	for _, fc := range charts {
		f.Updates = append(f.Updates, s.Step(fc, now)...)
	}
	return f
}

// Step runs the five passes over a single flowchart.
func (s *Simulator) Step(fc *flowchart.Flowchart, now time.Time) []Update {
	s.Repel(fc)
	s.Spring(fc)
	s.Contain(fc)
	s.Integrate(fc)
	return s.Place(fc, now)
}

// =============================================================================
// Pass A: sibling repulsion
// =============================================================================

// Repel pushes apart every pair of siblings whose surfaces are closer than
// MinSeparation. Bodies in different containers are never compared.
func (s *Simulator) Repel(fc *flowchart.Flowchart) {
	for _, c := range fc.Containers {
		for i, a := range c.Children {
			for _, b := range c.Children[i+1:] {
				ba, bb := fc.Body(a), fc.Body(b)
				if imp, ok := s.RepulsionImpulse(ba, bb); ok {
					applyPair(ba, bb, imp)
				}
			}
		}
	}
}

// RepulsionImpulse returns the impulse added to a's potential (and
// subtracted from b's) by sibling repulsion. ok is false when the pair is
// far enough apart, coincident, or not finite.
func (s *Simulator) RepulsionImpulse(a, b *flowchart.Body) (r3.Vec, bool) {
	d := r3.Sub(a.Position, b.Position)
	dist := r3.Norm(d)
	if dist-a.RadiusCollision-b.RadiusCollision >= s.params.MinSeparation {
		return r3.Vec{}, false
	}
	return along(d, dist, min(dist, s.params.RepulsionCap))
}

// =============================================================================
// Pass B: edge springs
// =============================================================================

// Spring applies the flat-bottomed spring of every edge. Edges between
// different containers act across the hierarchy.
func (s *Simulator) Spring(fc *flowchart.Flowchart) {
	for i := range fc.Edges {
		e := &fc.Edges[i]
		a, b := fc.Body(e.A), fc.Body(e.B)
		if imp, ok := s.SpringImpulse(a, b, e.RestLength); ok {
			applyPair(a, b, imp)
		}
	}
}

// SpringImpulse returns the impulse added to a's potential (and subtracted
// from b's) by an edge with the given rest length. The gap is measured
// between collision surfaces. Inside the dead zone
// [rest+RepelSlack, rest+AttractSlack] ok is false.
func (s *Simulator) SpringImpulse(a, b *flowchart.Body, rest float64) (r3.Vec, bool) {
	d := r3.Sub(a.Position, b.Position)
	dist := r3.Norm(d)
	gap := dist - a.RadiusCollision - b.RadiusCollision
	mag := min(dist, s.params.AttractionCap)
	switch {
	case gap > rest+s.params.AttractSlack:
		return along(d, dist, -mag)
	case gap < rest+s.params.RepelSlack:
		return along(d, dist, mag)
	}
	return r3.Vec{}, false
}

// =============================================================================
// Pass C: container cohesion and resizing
// =============================================================================

// Contain makes every container follow its children, pulls the children
// together, and eases the container radius toward the enclosing sphere.
// The root is pinned: it still pulls on its children but never moves.
func (s *Simulator) Contain(fc *flowchart.Flowchart) {
	for _, c := range fc.Containers {
		s.contain(fc, c)
	}
}

func (s *Simulator) contain(fc *flowchart.Flowchart, c *flowchart.Container) {
	body := fc.Body(c.Body)
	centroid, target, ok := s.Enclosure(fc, c)
	if !ok {
		return
	}
	if len(c.Children) > 0 {
		packing := c.Packing
		if packing <= 0 {
			packing = 1
		}
		anchor := r3.Scale(s.params.ChildAnchorGain, r3.Sub(body.Position, centroid))
		for _, id := range c.Children {
			child := fc.Body(id)
			pull := r3.Scale(s.params.ChildCentroidGain/packing, r3.Sub(child.Position, centroid))
			addPotential(child, r3.Sub(anchor, pull))
		}
		if body.Kind != flowchart.KindRoot {
			addPotential(body, r3.Scale(s.params.ContainerGain, r3.Sub(centroid, body.Position)))
		}
	}
	body.RadiusCollision += (target - body.RadiusCollision) * s.params.RadiusLerp
}

// Enclosure returns the radius-weighted centroid of c's children and the
// radius the container is easing toward: the farthest child surface from
// the centroid plus half the minimum separation. An empty container targets radius 0 and reports its own
// position as centroid. ok is false when the result is not finite.
func (s *Simulator) Enclosure(fc *flowchart.Flowchart, c *flowchart.Container) (centroid r3.Vec, target float64, ok bool) {
	if len(c.Children) == 0 {
		return fc.Body(c.Body).Position, 0, true
	}

	total := 0.0
	for _, id := range c.Children {
		total += fc.Body(id).RadiusCollision
	}
	for _, id := range c.Children {
		child := fc.Body(id)
		w := 1 / float64(len(c.Children))
		if total > 0 {
			w = child.RadiusCollision / total
		}
		centroid = r3.Add(centroid, r3.Scale(w, child.Position))
	}

	for _, id := range c.Children {
		child := fc.Body(id)
		reach := r3.Norm(r3.Sub(child.Position, centroid)) + child.RadiusCollision + s.params.MinSeparation/2
		target = max(target, reach)
	}

	if !finiteVec(centroid) || !finite(target) {
		return r3.Vec{}, 0, false
	}
	return centroid, target, true
}

// =============================================================================
// Pass D: integration
// =============================================================================

// Integrate advances every body except the pinned root by a fraction of its
// potential and then damps the potential.
func (s *Simulator) Integrate(fc *flowchart.Flowchart) {
	for i := range fc.Bodies {
		b := &fc.Bodies[i]
		if b.Kind == flowchart.KindRoot {
			continue
		}
		if !finiteVec(b.Potential) {
			b.Potential = r3.Vec{}
			continue
		}
		b.Position = r3.Add(b.Position, r3.Scale(s.params.IntegrationGain, b.Potential))
		b.Potential = r3.Scale(s.params.Decay, b.Potential)
	}
}

// Energy returns the summed magnitude of all potentials, a rough measure of
// how far the layout is from rest.
func Energy(fc *flowchart.Flowchart) float64 {
	e := 0.0
	for i := range fc.Bodies {
		e += r3.Norm(fc.Bodies[i].Potential)
	}
	return e
}

// =============================================================================
// Helpers
// =============================================================================

// along scales the direction of d (with length dist) to magnitude mag.
// Coincident or non-finite inputs yield no impulse.
func along(d r3.Vec, dist, mag float64) (r3.Vec, bool) {
	if dist == 0 || !finite(dist) || !finite(mag) {
		return r3.Vec{}, false
	}
	return r3.Scale(mag/dist, d), true
}

// applyPair adds imp to a and subtracts it from b.
func applyPair(a, b *flowchart.Body, imp r3.Vec) {
	a.Potential = r3.Add(a.Potential, imp)
	b.Potential = r3.Sub(b.Potential, imp)
}

func addPotential(b *flowchart.Body, v r3.Vec) {
	if finiteVec(v) {
		b.Potential = r3.Add(b.Potential, v)
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func finiteVec(v r3.Vec) bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }
