// Package dag is a small, generic dependency graph over string ids. It keeps
// nodes and edges in insertion order so that every traversal it offers is
// reproducible: cycle detection reports the same path for the same input and
// the topological order breaks ties by insertion order.
//
// The pipeline validator uses it to find dependency cycles between steps and
// the resolver and emitter use it to order steps.
package dag
