// Package render groups the flat output formats for simulated flowcharts.
//
// The 3D layout itself is the product; renderers exist to look at a frame
// without a 3D client. [nodelink] projects a frame through the camera
// orientation onto a plane and hands the pinned positions to Graphviz.
package render
