package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/num/quat"

	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/physics"
)

// DefaultScale is the number of points per world unit.
const DefaultScale = 36.0

// Options configures the projection.
type Options struct {
	// Scale is points per world unit. Zero means DefaultScale.
	Scale float64
	// View rotates world space into camera space before projecting onto
	// the camera XY plane. The zero value means the identity.
	View quat.Number
	// Detailed adds archetype and depth to node labels.
	Detailed bool
	// ShowHidden draws entities hidden by isolation with a faded style
	// instead of omitting them.
	ShowHidden bool
}

func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.View == (quat.Number{}) {
		o.View = quat.Number{Real: 1}
	}
	return o
}

const pointsPerInch = 72.0

// ToDOT projects one flowchart of a frame into Graphviz DOT. Every entity
// is pinned at its projected position, so the result must be laid out with
// neato (as [RenderSVG] does) to keep the simulated layout.
//
// Subgraphs become dashed circles sized to their projected radius and are
// emitted before nodes so they draw underneath.
func ToDOT(fc frame.Flowchart, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", graphName(fc))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fixedsize=true, fontsize=10];\n")
	buf.WriteString("\n")

	for _, s := range fc.Subgraphs {
		if !s.Visible && !opts.ShowHidden {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", s.DisplayLabel()),
			"style=dashed",
			"labelloc=t",
			pos(opts, s.Position),
			size(opts, s.Radius),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", s.ID, strings.Join(attrs, ", "))
	}

	for _, n := range fc.Nodes {
		if !n.Visible && !opts.ShowHidden {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			pos(opts, n.Position),
			size(opts, n.Radius),
		}
		attrs = append(attrs, fmtNodeAttrs(n)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range fc.Edges {
		if !e.Visible && !opts.ShowHidden {
			continue
		}
		attrs := fmtEdgeAttrs(e)
		if !e.Visible {
			attrs = append(attrs, "color=gray80")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func graphName(fc frame.Flowchart) string {
	if fc.Name != "" {
		return fc.Name
	}
	return fc.ID
}

func fmtLabel(n frame.Entity, detailed bool) string {
	if !detailed {
		return n.DisplayLabel()
	}
	parts := []string{n.DisplayLabel()}
	if n.Archetype != "" {
		parts = append(parts, n.Archetype)
	}
	if n.Parent != "" {
		parts = append(parts, "in "+n.Parent)
	}
	return strings.Join(parts, "\n")
}

func fmtNodeAttrs(n frame.Entity) []string {
	var attrs []string
	if n.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Color))
	}
	if !n.Visible {
		attrs = append(attrs, "style=\"filled,dotted\"", "fontcolor=gray60")
	}
	return attrs
}

func fmtEdgeAttrs(e frame.Entity) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	switch e.Stroke {
	case "dotted":
		attrs = append(attrs, "style=dotted")
	case "thick":
		attrs = append(attrs, "penwidth=3")
	}
	switch e.Arrow {
	case "arrow_open":
		attrs = append(attrs, "arrowhead=none")
	case "double_arrow_point":
		attrs = append(attrs, "dir=both")
	}
	return attrs
}

func pos(opts Options, p frame.Vec3) string {
	v := physics.Rotate(quat.Inv(opts.View), p.Vec())
	return fmt.Sprintf("pos=\"%.2f,%.2f!\"", v.X*opts.Scale, v.Y*opts.Scale)
}

func size(opts Options, radius float64) string {
	d := max(2*radius*opts.Scale/pointsPerInch, 0.05)
	return fmt.Sprintf("width=%.3f, height=%.3f", d, d)
}

// RenderSVG lays out a DOT graph with neato, honoring pinned positions, and
// renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out a DOT graph with neato and renders it to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
