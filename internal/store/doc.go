// Package store defines the persistence interfaces the rest of the
// application depends on, together with the shared error taxonomy those
// implementations report. Concrete implementations live under
// internal/platform.
package store
