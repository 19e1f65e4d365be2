// Package scatter computes the effective types of a pipeline graph.
//
// A step with a scatter specification runs once per element of its
// scattered inputs, taken in lock-step, so every output it declares as T is
// seen downstream as Array(T). A consumer without its own scatter gathers
// that array as a single value. Resolution walks the steps in dependency
// order so that each consumer sees the already rewritten type of its
// sources. The graph itself is never modified.
package scatter
