// Package emit lowers a validated pipeline graph into a portable
// description: an ordered task list with resolved port types, invocation
// descriptors and explicit dependencies that an external workflow runner
// can execute without repeating validation.
//
// Emission is gated on the validation report of the very graph being
// emitted. Tasks are listed in a stable topological order in which ties
// are broken by declaration order, so identical graphs always produce
// byte-identical descriptions and the same description ID.
//
// A description can be written as YAML, JSON or HCL and read back from
// YAML or JSON with Decode.
package emit
