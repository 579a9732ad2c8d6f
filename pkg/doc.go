// Package pkg holds the flowspace libraries.
//
// Flowspace turns flowchart diagrams embedded in markdown into a 3D layout
// that settles under a hierarchical force simulation. Subgraphs are spheres
// that enclose their members and edges are springs between leaves or
// subgraphs.
//
// # Data flow
//
//	markdown / YAML document
//	         ↓
//	    [source] (extract flowchart blocks, parse diagrams)
//	         ↓
//	    [flowchart] (entity tree, edges, isolation)
//	         ↓
//	    [scene] (concurrent load, ordered publication)
//	         ↓
//	    [physics] (repulsion, springs, containment, integration)
//	         ↓
//	    [frame] (placement snapshot as JSON)
//	         ↓
//	    [render/nodelink] (DOT / SVG / PNG projection)
//
// [pipeline] orchestrates these steps behind a [cache] and is what the CLI
// and server call. [errors] carries the error codes surfaced by both.
package pkg
