// Package state persists the local correspondence between stable local
// identities and remote CMDB record IDs, plus the set of relationship edges
// already confirmed on the remote side.
//
// The store is the sole idempotency mechanism of the sync engine: every
// confirmed create writes an entry, and every upsert consults the store
// before touching the remote API.
//
// # Durability
//
// The whole store lives in a single JSON document. It is read fully when
// opened and rewritten atomically (temp file + rename) after every mutation,
// so a crash loses at most the in-flight operation.
//
// # Keys
//
// Keys are normalized by callers (lower-case, domain suffix stripped); the
// store itself treats them as opaque strings. Callers may probe both the
// fully-qualified and the short hostname form.
//
// # Usage
//
//	store, err := state.Open("cmdb-state.json")
//	id, ok := store.Get(state.KindAsset, "web01")
//	err = store.Put(state.KindAsset, "web01", "rec-1042")
package state
