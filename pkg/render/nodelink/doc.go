// Package nodelink projects simulated flowcharts onto flat node-link
// diagrams.
//
// # Overview
//
// The 3D scene is rotated into camera space and flattened onto the camera
// XY plane. Leaf nodes become filled circles tinted with their emoji color,
// subgraphs become dashed circles at their live enclosing radius, and edges
// become arrows styled after their stroke and arrowhead.
//
// # Usage
//
// Convert one flowchart of a frame to DOT, then render:
//
//	dot := nodelink.ToDOT(f.Flowcharts[0], nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # DOT Format
//
// Every entity carries a pinned position (pos="x,y!"), so the DOT must be
// laid out with neato to reproduce the simulation. The render functions do
// this in-process.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering; no Graphviz installation is required.
package nodelink
