// internal/ref/doc.go

/*
Package ref provides the textual form of a binding source inside a pipeline
graph.

A reference names either a graph input, written as a bare `name`, or the
output port of a step, written as `step.port`. Names are identifiers:
a letter or underscore followed by letters, digits, underscores or hyphens.

This package centralizes formatting and parsing so that the builder, the
emitter and the description decoder agree on one canonical spelling.
*/
package ref
