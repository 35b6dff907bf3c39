// Package fleet provides the managed-host inventory consumed by the sync
// engine: the HostRecord and Enrichment types, the Source interface, and
// the concrete sources (the gorm-backed inventory database and an in-memory
// static source for tests).
//
// Host records are immutable within a run. Enrichment is best-effort
// collector output; a host without enrichment yields the zero value.
package fleet
