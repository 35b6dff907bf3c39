// Package manifest loads and aggregates the declarative configuration-item
// manifests authored by operators.
//
// Documents arrive already tabulated: per-kind declaration rows plus one
// relationship-edge table per document. The aggregator merges rows across
// documents into deduplicated sets: a CI name repeated across documents is
// the same CI and the later document wins whole (last-write-wins, not a
// field merge). Rows whose names still contain unresolved template
// placeholders are filtered and never emitted.
//
// Edges are retained even when an endpoint name is never declared in any
// CI table; endpoint resolution and "target not found" skipping happen
// downstream in the relationship synchronizer.
package manifest
