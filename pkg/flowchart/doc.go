// Package flowchart provides the spatial data model for 3D flowchart scenes.
//
// A [Flowchart] is built once from the vertex, edge and subgraph records of a
// single diagram. Every node and subgraph becomes a [Body] (a spatial entity
// with a position, an accumulated force called the potential, and a collision
// radius) stored in an arena owned by the flowchart. Entities are addressed by
// [BodyID]; edges and containers refer to bodies by ID, never by pointer.
//
// # Hierarchy
//
// Bodies come in three kinds:
//
//   - [KindLeaf]: one diagram vertex ([LeafNode])
//   - [KindSubgraph]: a nested container ([Container] with a [SubgraphRecord])
//   - [KindRoot]: the implicit top-level container, always BodyID 0
//
// Every body except the root is the direct child of exactly one container.
// Subgraph membership is resolved once during [Build] ("claiming") and never
// changes afterwards.
//
// # Building
//
//	fc, err := flowchart.Build(diagram, flowchart.BuildOptions{Seed: 42})
//	if err != nil {
//	    // unresolved ids, cyclic membership: this diagram only
//	}
//	for _, c := range fc.Containers {
//	    // root first, then every subgraph at every depth
//	}
//
// The force simulation that moves bodies lives in package physics.
package flowchart
