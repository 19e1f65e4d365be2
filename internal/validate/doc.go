// Package validate checks a built pipeline graph and collects every defect
// it finds into one Report. Validation never modifies the graph and never
// stops at the first error.
//
// The checks are:
//   - scatter specifications (from the scatter resolver),
//   - dependency cycles between steps,
//   - type compatibility of every binding and graph output,
//   - ports bound more than once,
//   - required step inputs left unbound.
//
// Only a graph whose Report is Valid may be emitted.
package validate
