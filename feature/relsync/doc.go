// Package relsync submits declared relationships to the remote record
// store in bulk and tracks which edges are already confirmed.
//
// Manifest edges name their endpoints; the syncer resolves both ends
// through the correspondence store, translates the human relationship
// phrasing to a remote type via the alias table, and submits batches to
// the asynchronous bulk endpoint. Each accepted edge is added to the
// synced set, so later runs skip it without a remote call. The remote
// side rejecting an edge as a duplicate counts as confirmation too.
package relsync
