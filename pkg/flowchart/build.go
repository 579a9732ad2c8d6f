package flowchart

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmptyID is returned by [Build] when a vertex or subgraph has no id.
	ErrEmptyID = errors.New("empty id")

	// ErrDuplicateID is returned by [Build] when two vertices or two
	// subgraphs share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownNode is returned by [Flowchart.Lookup] for ids that name
	// neither a leaf node nor a subgraph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEndpoint is returned by [Build] when an edge references an
	// id that names neither a leaf node nor a subgraph.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")

	// ErrUnknownMember is returned by [Build] when a subgraph lists a member
	// id that names neither a vertex nor a subgraph.
	ErrUnknownMember = errors.New("unknown subgraph member")

	// ErrCyclicMembership is returned by [Build] when subgraph membership
	// does not form a tree (a subgraph contains itself directly or through
	// nested subgraphs).
	ErrCyclicMembership = errors.New("cyclic subgraph membership")
)

// Build defaults.
const (
	DefaultSpread      = 2.0
	DefaultLengthScale = 4.0
	DefaultMargin      = 1.0
	DefaultSeed        = uint64(42)

	// SubgraphRadius is the radius of a subgraph before its children are
	// measured.
	SubgraphRadius = 3.0

	RootPacking     = 0.99
	SubgraphPacking = 0.98

	// MaxSegments bounds the flow segments of a single edge.
	MaxSegments = 256
)

// BuildOptions tunes flowchart construction. Zero fields take defaults.
type BuildOptions struct {
	// Seed drives the initial scatter of bodies around the origin.
	Seed uint64
	// Spread is the edge length of the cube bodies are scattered in.
	Spread float64
	// LengthScale converts parser link lengths into rest lengths.
	LengthScale float64
	// Margin is added to the largest child radius when sizing containers.
	Margin float64
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Spread == 0 {
		o.Spread = DefaultSpread
	}
	if o.LengthScale == 0 {
		o.LengthScale = DefaultLengthScale
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// Build instantiates the spatial model of one diagram.
//
// Vertices whose id is also a subgraph id are masked by the subgraph.
// Subgraphs claim their members in record order; nested subgraphs are
// claimed recursively, and an entity is claimed by at most one subgraph.
// Whatever is left unclaimed becomes a child of the root. Container radii
// are then sized bottom-up.
//
// Any unresolved id or cyclic membership aborts the build.
func Build(d Diagram, opts BuildOptions) (*Flowchart, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	fc := &Flowchart{
		ID:     uuid.NewString(),
		Name:   d.Name,
		lookup: make(map[string]BodyID),
	}
	fc.Bodies = append(fc.Bodies, Body{Kind: KindRoot, Visible: true})
	fc.Containers = append(fc.Containers, newContainer(RootID, nil, RootPacking))

	subgraphIDs := make(map[string]bool, len(d.Subgraphs))
	for _, s := range d.Subgraphs {
		if s.ID == "" {
			return nil, fmt.Errorf("subgraph: %w", ErrEmptyID)
		}
		if subgraphIDs[s.ID] {
			return nil, fmt.Errorf("%w: subgraph %s", ErrDuplicateID, s.ID)
		}
		subgraphIDs[s.ID] = true
	}

	for _, v := range d.Vertices {
		if v.ID == "" {
			return nil, fmt.Errorf("vertex: %w", ErrEmptyID)
		}
		if subgraphIDs[v.ID] {
			continue
		}
		if _, dup := fc.lookup[v.ID]; dup {
			return nil, fmt.Errorf("%w: vertex %s", ErrDuplicateID, v.ID)
		}
		a := ArchetypeFor(v.Text)
		id := fc.addBody(Body{
			ID:               v.ID,
			Kind:             KindLeaf,
			Ref:              len(fc.Leaves),
			Position:         scatter(rng, opts.Spread),
			RadiusCollision:  a.RadiusCollision,
			RadiusConnection: a.RadiusConnection,
			Visible:          true,
		})
		fc.Leaves = append(fc.Leaves, LeafNode{Body: id, Vertex: v, Archetype: a})
	}

	for _, s := range d.Subgraphs {
		rec := s
		rec.Members = append([]string(nil), s.Members...)
		id := fc.addBody(Body{
			ID:               s.ID,
			Kind:             KindSubgraph,
			Ref:              len(fc.Containers),
			Position:         scatter(rng, opts.Spread),
			RadiusCollision:  SubgraphRadius,
			RadiusConnection: SubgraphRadius,
			Visible:          true,
		})
		fc.Containers = append(fc.Containers, newContainer(id, &rec, SubgraphPacking))
	}

	if err := fc.claimMembers(); err != nil {
		return nil, err
	}

	for _, r := range d.Edges {
		if err := fc.addEdge(r, opts.LengthScale); err != nil {
			return nil, err
		}
	}

	fc.grow(fc.Root(), opts.Margin)
	return fc, nil
}

func (f *Flowchart) addBody(b Body) BodyID {
	id := BodyID(len(f.Bodies))
	f.Bodies = append(f.Bodies, b)
	f.lookup[b.ID] = id
	return id
}

type resolveState uint8

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// claimer moves bodies from the unclaimed pool into subgraph containers.
type claimer struct {
	fc      *Flowchart
	claimed map[BodyID]bool
	state   map[BodyID]resolveState
}

func (f *Flowchart) claimMembers() error {
	c := &claimer{
		fc:      f,
		claimed: make(map[BodyID]bool),
		state:   make(map[BodyID]resolveState),
	}
	for _, sg := range f.Containers[1:] {
		if err := c.resolve(sg); err != nil {
			return err
		}
	}

	root := f.Root()
	// Unclaimed subgraphs first, then unclaimed leaves.
	for _, sg := range f.Containers[1:] {
		if !c.claimed[sg.Body] {
			if err := root.Add(f.Bodies[sg.Body].ID, sg.Body); err != nil {
				return err
			}
		}
	}
	for _, l := range f.Leaves {
		if !c.claimed[l.Body] {
			if err := root.Add(f.Bodies[l.Body].ID, l.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *claimer) resolve(sg *Container) error {
	switch c.state[sg.Body] {
	case resolved:
		return nil
	case resolving:
		return fmt.Errorf("%w: %s", ErrCyclicMembership, sg.Record.ID)
	case unresolved:
	}
	c.state[sg.Body] = resolving

	for _, m := range sg.Record.Members {
		id, ok := c.fc.lookup[m]
		if !ok {
			return fmt.Errorf("%w: %s in subgraph %s", ErrUnknownMember, m, sg.Record.ID)
		}
		b := c.fc.Body(id)
		switch b.Kind {
		case KindSubgraph:
			if c.state[id] == resolving {
				return fmt.Errorf("%w: %s contains %s", ErrCyclicMembership, sg.Record.ID, m)
			}
			if c.claimed[id] {
				continue
			}
			c.claimed[id] = true
			if err := sg.Add(m, id); err != nil {
				return err
			}
			if err := c.resolve(c.fc.Containers[b.Ref]); err != nil {
				return err
			}
		case KindLeaf:
			if c.claimed[id] {
				continue
			}
			c.claimed[id] = true
			if err := sg.Add(m, id); err != nil {
				return err
			}
		case KindRoot:
			return fmt.Errorf("%w: %s in subgraph %s", ErrUnknownMember, m, sg.Record.ID)
		}
	}

	c.state[sg.Body] = resolved
	return nil
}

func (f *Flowchart) addEdge(r EdgeRecord, lengthScale float64) error {
	if r.Length <= 0 {
		r.Length = 1
	}
	if r.Stroke == "" {
		r.Stroke = StrokeNormal
	}
	if r.Arrow == "" {
		r.Arrow = ArrowPoint
	}

	a, ok := f.lookup[r.Start]
	if !ok {
		return fmt.Errorf("%w: %s (edge %s -> %s)", ErrUnknownEndpoint, r.Start, r.Start, r.End)
	}
	b, ok := f.lookup[r.End]
	if !ok {
		return fmt.Errorf("%w: %s (edge %s -> %s)", ErrUnknownEndpoint, r.End, r.Start, r.End)
	}

	rest := float64(r.Length) * lengthScale
	e := Edge{Record: r, A: a, B: b, RestLength: rest, Visible: true}
	if r.Segmented() {
		n := rest * 2
		if e.Double() {
			n *= 2
		}
		e.Segments = int(min(math.Ceil(n), MaxSegments))
	}
	f.Edges = append(f.Edges, e)
	return nil
}

// grow sizes containers bottom-up: nested subgraphs are measured before
// their parent reads their radius.
func (f *Flowchart) grow(c *Container, margin float64) {
	largest := 0.0
	for _, child := range c.Children {
		b := f.Body(child)
		switch b.Kind {
		case KindSubgraph:
			f.grow(f.Containers[b.Ref], margin)
		case KindLeaf, KindRoot:
		}
		largest = max(largest, b.RadiusCollision)
	}
	f.Body(c.Body).RadiusCollision = largest + margin
}

func scatter(rng *rand.Rand, spread float64) r3.Vec {
	return r3.Vec{
		X: (rng.Float64() - 0.5) * spread,
		Y: (rng.Float64() - 0.5) * spread,
		Z: (rng.Float64() - 0.5) * spread,
	}
}
