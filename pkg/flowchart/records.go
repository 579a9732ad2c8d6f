package flowchart

// Shape is the vertex shape tag produced by the flowchart parser.
type Shape string

// Vertex shapes.
const (
	ShapeDefault      Shape = ""
	ShapeSquare       Shape = "square"
	ShapeStadium      Shape = "stadium"
	ShapeSubroutine   Shape = "subroutine"
	ShapeCylinder     Shape = "cylinder"
	ShapeCircle       Shape = "circle"
	ShapeDoubleCircle Shape = "doublecircle"
	ShapeOdd          Shape = "odd"
	ShapeDiamond      Shape = "diamond"
	ShapeHexagon      Shape = "hexagon"
	ShapeLeanRight    Shape = "lean_right"
	ShapeLeanLeft     Shape = "lean_left"
	ShapeTrapezoid    Shape = "trapezoid"
	ShapeInvTrapezoid Shape = "inv_trapezoid"
)

// Stroke is the line style of an edge.
type Stroke string

// Edge strokes.
const (
	StrokeNormal Stroke = "normal"
	StrokeDotted Stroke = "dotted"
	StrokeThick  Stroke = "thick"
)

// Arrow is the arrowhead style of an edge.
type Arrow string

// Edge arrows.
const (
	ArrowPoint       Arrow = "arrow_point"
	ArrowOpen        Arrow = "arrow_open"
	ArrowDoublePoint Arrow = "double_arrow_point"
)

// Vertex is one diagram node as reported by the parser.
type Vertex struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Shape Shape  `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// EdgeRecord is one diagram connection as reported by the parser.
// Length is the parser's link length (1 for "-->", 2 for "--->", ...).
type EdgeRecord struct {
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
	Length int    `json:"length,omitempty" yaml:"length,omitempty"`
	Stroke Stroke `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Arrow  Arrow  `json:"type,omitempty" yaml:"type,omitempty"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Segmented reports whether the edge is drawn as a chain of flowing segments
// rather than a solid connector.
func (e EdgeRecord) Segmented() bool {
	return e.Arrow != ArrowOpen || e.Stroke == StrokeDotted
}

// SubgraphRecord is one subgraph declaration. Members may name vertices or
// other subgraphs.
type SubgraphRecord struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
}

// Diagram holds the parsed records of one flowchart. Any of the record sets
// may be empty.
type Diagram struct {
	Name      string           `json:"name,omitempty" yaml:"name,omitempty"`
	Vertices  []Vertex         `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	Edges     []EdgeRecord     `json:"edges,omitempty" yaml:"edges,omitempty"`
	Subgraphs []SubgraphRecord `json:"subgraphs,omitempty" yaml:"subgraphs,omitempty"`
}
