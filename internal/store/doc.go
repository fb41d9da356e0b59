// Package store provides SQLite-backed persistence for the publishing
// pipeline: leads keyed by URL, articles keyed by slug, and the atomic
// per-lead outcome transaction that keeps them consistent.
package store
