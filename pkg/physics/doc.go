// Package physics implements the hierarchical force-directed layout
// simulator for flowchart scenes.
//
// The simulator never converges and never stops: it is stepped once per
// rendering frame and nudges every body a little each time. One tick runs
// five passes over each flowchart, in order:
//
//  1. Repel: sibling bodies closer than MinSeparation push apart. Bodies in
//     different containers never interact.
//  2. Spring: every edge acts as a spring with a flat-bottomed well around
//     its rest length. It pulls when the gap is too long and pushes when it
//     is too short, and does nothing in between.
//  3. Contain: each container follows the radius-weighted centroid of its
//     children, pulls them in, and eases its radius toward the smallest
//     sphere that encloses them.
//  4. Integrate: positions advance by a fraction of the accumulated
//     potential, which then decays instead of resetting. The decayed
//     remainder is the only inertia in the system.
//  5. Place edges: connectors are centered in the gap between endpoint
//     surfaces, aligned source→target, and stretched to the gap.
//
// All impulses are applied in equal and opposite pairs, so passes 1 and 2
// inject no net momentum.
//
// # Output
//
// Rather than mutating a scene graph, [Simulator.Tick] returns a [Frame] of
// [Update] records (position, orientation, scale, visibility per entity) for
// the renderer to apply.
//
// # Tuning
//
// The constants in [Params] were tuned by eye. Retuned values should be
// checked for divergence over a few thousand ticks before use.
package physics
