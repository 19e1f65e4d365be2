// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pipeline provides the in-memory model of a pipeline graph and the
// builder that produces it.
//
// # Core Concepts
//
//   - Port: a named, typed slot on a step or on the graph boundary. Its type
//     is fixed at declaration and never changes.
//
//   - Step: a node of the graph. A step is either External (an opaque command
//     run out of process, described by a Tool) or Computed (an in-process
//     transform referenced by name). Both kinds share the same port contract.
//
//   - Binding: a directed edge from a Source (a graph input, another step's
//     output, or a literal value) to one input port of a step.
//
//   - ScatterSpec: the input ports a step fans out over in lock-step.
//
//   - Graph: the frozen result of Builder.Build. Nothing mutates it afterwards.
//
// Names are resolved when they are declared, not when they are accessed: a
// reference to an undeclared input or step output is an error at the call
// that made it. WithDeferredReferences relaxes this to allow declarations in
// any order, moving the check to Build.
//
// A Builder is owned by a single caller. Concurrent calls on the same Builder
// must be serialized by the caller.
package pipeline
