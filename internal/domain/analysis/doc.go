// Package analysis implements the card-sort analytics engine: similarity
// matrices, hierarchical clustering, category frequency statistics,
// inter-participant agreement, significance testing, and data-quality
// diagnostics over collections of domain.CardSortResult records.
//
// Every function in this package is pure and deterministic: for a fixed input
// slice (including its order) the output is identical across calls. Nothing
// here touches a clock, random source, or any I/O, so the functions are safe
// to call concurrently from any goroutine.
//
// Two statistical shortcuts are part of the engine's contract and must not be
// "fixed": the pairwise kappa uses a fixed expected agreement of 0.5 instead
// of marginal frequencies, and the chi-square p-value is a coarse threshold
// lookup rather than a CDF evaluation. Downstream consumers and golden tests
// depend on these exact values; both limitations are surfaced in the
// respective doc comments.
//
// Missing or malformed inputs degrade to zero values and empty collections
// rather than errors. The only diagnostics surfaced to callers are the
// ValidationReport and OutlierReport values, which are data for display, not
// control flow.
package analysis
