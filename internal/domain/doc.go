// Package domain contains the core entities of the SortLab card-sorting
// platform: researcher accounts, studies, and the per-participant card-sort
// results consumed by the analytics engine in the analysis subpackage.
//
// Entities validate themselves via Validate() and are created through
// constructor functions that assign identifiers and timestamps. They carry no
// persistence or transport concerns.
package domain
