// Package upsert implements idempotent create-or-update of fleet assets
// and declared CIs against the remote record store.
//
// The remote API offers no transactions, so idempotency rests entirely on
// the correspondence store: resolution is store lookup first, exact-name
// remote search on miss, create only when both miss. Every confirmed
// create writes the store before the engine moves on. Updates never carry
// the type field because the remote schema forbids changing a record's
// type after creation.
//
// Per-record failures become skipped outcomes with a reason and never
// abort the batch; an idempotent re-run is the retry mechanism.
package upsert
