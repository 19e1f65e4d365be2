// Package transform provides the contract of computed steps and the registry
// that maps transform names used in pipeline definitions to their Go
// implementations.
//
// A transform is a pure function from named input values to named output
// values. Call enforces its declared port contract on both sides, so a
// transform can be invoked with nothing but its inputs and a type registry.
//
// Packages that provide transforms expose a Module whose Register method
// adds them to a Registry during application startup.
package transform
