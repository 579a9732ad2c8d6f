// Package frame serializes simulator output.
//
// A [physics.Frame] is a flat list of spatial updates keyed by flowchart
// and entity id. [FromTick] regroups it per flowchart and adds the static
// structure a consumer needs to draw it without access to the scene: which
// subgraph encloses each node, which entities each edge connects, and the
// edge styles. The result encodes to JSON with [Marshal], [Write] or
// [WriteFile] and decodes with [Unmarshal], [Read] or [ReadFile].
//
// Frames are what the HTTP server streams, what `flowspace simulate` writes,
// what the settled-frame cache stores, and what the DOT projection reads.
package frame
