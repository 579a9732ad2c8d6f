package flowchart

import (
	"fmt"
)

// Flowchart is the spatial model of one diagram: an arena of bodies, the leaf
// nodes and containers that wrap them, and the edges between them.
//
// Containers[0] is always the root. The remaining containers are every
// subgraph at every nesting depth, in record order. Force passes iterate
// Containers rather than walking the hierarchy.
//
// A Flowchart is not safe for concurrent use. The simulator and visibility
// toggles are expected to run on one goroutine.
type Flowchart struct {
	ID    string // unique per build (uuid)
	Name  string
	Index int // position of the diagram within its source

	Bodies     []Body
	Leaves     []LeafNode
	Containers []*Container
	Edges      []Edge

	isolated string
	lookup   map[string]BodyID
}

// Root returns the root container.
func (f *Flowchart) Root() *Container { return f.Containers[0] }

// Body returns the body with the given id. It panics on ids that were not
// issued by this flowchart.
func (f *Flowchart) Body(id BodyID) *Body { return &f.Bodies[id] }

// Lookup resolves a vertex or subgraph id to its body.
func (f *Flowchart) Lookup(id string) (BodyID, error) {
	b, ok := f.lookup[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return b, nil
}

// ContainerOf returns the container owned by a subgraph or root body.
func (f *Flowchart) ContainerOf(id BodyID) (*Container, bool) {
	b := f.Body(id)
	switch b.Kind {
	case KindSubgraph, KindRoot:
		return f.Containers[b.Ref], true
	case KindLeaf:
		return nil, false
	}
	return nil, false
}

// Parent returns the container that directly owns body id. The root has no
// parent.
func (f *Flowchart) Parent(id BodyID) (*Container, bool) {
	for _, c := range f.Containers {
		for _, child := range c.Children {
			if child == id {
				return c, true
			}
		}
	}
	return nil, false
}

// NodeCount returns the number of leaf nodes.
func (f *Flowchart) NodeCount() int { return len(f.Leaves) }

// SubgraphCount returns the number of subgraphs (containers minus the root).
func (f *Flowchart) SubgraphCount() int { return len(f.Containers) - 1 }

// EdgeCount returns the number of edges.
func (f *Flowchart) EdgeCount() int { return len(f.Edges) }

// Isolated returns the id passed to the last effective Isolate call, or ""
// when everything is shown.
func (f *Flowchart) Isolated() string { return f.isolated }

// Isolate hides every leaf and edge that is not the given entity or
// connected to it. Endpoints of the remaining edges stay visible.
// Isolating the currently isolated id again shows everything.
//
// Visibility never affects the simulation.
func (f *Flowchart) Isolate(id string) error {
	target, err := f.Lookup(id)
	if err != nil {
		return err
	}
	if f.isolated == id {
		f.ShowAll()
		return nil
	}
	f.isolated = id
	for _, l := range f.Leaves {
		f.Bodies[l.Body].Visible = l.Body == target
	}
	for i := range f.Edges {
		e := &f.Edges[i]
		e.Visible = e.A == target || e.B == target
		if e.Visible {
			f.Bodies[e.A].Visible = true
			f.Bodies[e.B].Visible = true
		}
	}
	return nil
}

// ShowAll clears any isolation.
func (f *Flowchart) ShowAll() {
	f.isolated = ""
	for i := range f.Bodies {
		f.Bodies[i].Visible = true
	}
	for i := range f.Edges {
		f.Edges[i].Visible = true
	}
}

// Walk visits the hierarchy depth-first starting at the root, calling fn
// with each body and its depth (root = 0). Children are visited in insertion
// order.
func (f *Flowchart) Walk(fn func(id BodyID, depth int)) {
	f.walk(RootID, 0, fn)
}

func (f *Flowchart) walk(id BodyID, depth int, fn func(BodyID, int)) {
	fn(id, depth)
	c, ok := f.ContainerOf(id)
	if !ok {
		return
	}
	for _, child := range c.Children {
		f.walk(child, depth+1, fn)
	}
}
