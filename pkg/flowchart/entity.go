package flowchart

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind distinguishes the variants of a spatial entity.
type Kind uint8

const (
	// KindLeaf is a body wrapping one diagram vertex.
	KindLeaf Kind = iota
	// KindSubgraph is a container nested inside another container.
	KindSubgraph
	// KindRoot is the implicit top-level container of a flowchart.
	KindRoot
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSubgraph:
		return "subgraph"
	case KindRoot:
		return "root"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsContainer reports whether bodies of this kind own children.
func (k Kind) IsContainer() bool { return k == KindSubgraph || k == KindRoot }

// BodyID addresses a body inside its flowchart's arena.
type BodyID int

// RootID is the BodyID of every flowchart's root container.
const RootID BodyID = 0

// Body is a spatial entity: a position, an accumulated force ("potential")
// and a collision radius.
//
// The potential is never cleared. The simulator damps it every tick, so
// residual motion carries over between ticks.
type Body struct {
	ID   string
	Kind Kind
	// Ref indexes Flowchart.Leaves for leaves and Flowchart.Containers for
	// containers.
	Ref int

	Position  r3.Vec
	Potential r3.Vec

	// RadiusCollision is the minimum clearance to other bodies' surfaces.
	// For containers it is recomputed from the children every tick.
	RadiusCollision float64
	// RadiusConnection offsets visual edge endpoints from a leaf's center.
	RadiusConnection float64

	// Visible is toggled by Flowchart.Isolate. Hidden bodies still take part
	// in every force pass.
	Visible bool
}

// EdgeRadius returns the distance from the body center at which edge
// connectors attach. Containers attach at their live enclosing radius.
func (b *Body) EdgeRadius() float64 {
	switch b.Kind {
	case KindLeaf:
		return b.RadiusConnection
	case KindSubgraph, KindRoot:
		return b.RadiusCollision
	}
	return 0
}

// LeafNode is a body wrapping one diagram vertex.
type LeafNode struct {
	Body      BodyID
	Vertex    Vertex
	Archetype Archetype
}

// Edge connects two bodies (leaf nodes or subgraphs).
type Edge struct {
	Record EdgeRecord
	A, B   BodyID
	// RestLength is the target surface-to-surface separation.
	RestLength float64
	// Segments is the number of decorative flow segments (0 for solid edges).
	Segments int
	Visible  bool
}

// Double reports whether the edge has arrowheads on both ends.
func (e *Edge) Double() bool { return e.Record.Arrow == ArrowDoublePoint }

var (
	// ErrUnknownChild is returned by [Container.Child] for ids that are not a
	// direct child of the container.
	ErrUnknownChild = errors.New("unknown child")

	// ErrDuplicateChild is returned by [Container.Add] when the id is
	// already a child of the container.
	ErrDuplicateChild = errors.New("duplicate child")
)

// Container owns an insertion-ordered set of child bodies, each keyed by a
// unique id. The root container and every subgraph are containers.
type Container struct {
	Body BodyID
	// Record is nil for the root container.
	Record *SubgraphRecord
	// Packing divides the pull of children toward their centroid; subgraphs
	// pack tighter than the root. It never shrinks the enclosing radius.
	Packing  float64
	Children []BodyID

	byID map[string]BodyID
}

func newContainer(body BodyID, rec *SubgraphRecord, packing float64) *Container {
	return &Container{
		Body:    body,
		Record:  rec,
		Packing: packing,
		byID:    make(map[string]BodyID),
	}
}

// Add appends a child. Ids must be unique within the container.
func (c *Container) Add(id string, body BodyID) error {
	if _, ok := c.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateChild, id)
	}
	c.byID[id] = body
	c.Children = append(c.Children, body)
	return nil
}

// Child looks up a direct child by id.
func (c *Container) Child(id string) (BodyID, error) {
	b, ok := c.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownChild, id)
	}
	return b, nil
}

// Len returns the number of direct children.
func (c *Container) Len() int { return len(c.Children) }
