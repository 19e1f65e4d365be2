// Package grouping splits the sequences of a reference genome into groups
// of contiguous intervals for scattering per-interval work.
//
// Groups are filled greedily in dictionary order and bounded by the length
// of the longest sequence: a sequence joins the current group while the
// running total stays within that bound, otherwise it opens a new group.
// Every name carries the ":1+" suffix so that consumers which cut an
// interval at its last colon keep contig names that contain colons intact.
//
// The package also provides the CreateSequenceGroupings transform, which
// reads the sequence dictionary next to a FASTA reference.
package grouping
