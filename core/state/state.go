package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies the keyspace a correspondence entry belongs to.
// Assets are discovered from the fleet; the remaining kinds are declared
// configuration items (or change records referencing them).
type Kind string

const (
	KindAsset           Kind = "asset"
	KindBusinessService Kind = "business-service"
	KindITService       Kind = "it-service"
	KindDatabase        Kind = "database"
	KindChange          Kind = "change"
)

// CIKinds lists the kinds declared via manifests, in endpoint-resolution
// order.
var CIKinds = []Kind{KindBusinessService, KindITService, KindDatabase}

// Edge is a resolved, confirmed relationship triple.
type Edge struct {
	SourceID string
	TypeID   string
	TargetID string
}

// Key returns the stable set key for the triple.
func (e Edge) Key() string {
	return e.SourceID + "|" + e.TypeID + "|" + e.TargetID
}

// document is the on-disk shape of the store.
type document struct {
	// Entries maps kind -> normalized local key -> remote record ID.
	Entries map[Kind]map[string]string `json:"entries"`
	// SyncedEdges holds "sourceID|typeID|targetID" keys of relationships
	// confirmed on the remote side.
	SyncedEdges []string `json:"synced_edges"`
}

// Store is the durable correspondence store. It is not safe for concurrent
// use; the sync engine is a single-threaded batch job and mutates the store
// strictly between sequential remote calls.
type Store struct {
	path   string
	doc    document
	synced map[string]struct{}
}

// Open reads the store from path. A missing file yields an empty store; the
// file is created on the first mutation.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		doc:    document{Entries: make(map[Kind]map[string]string)},
		synced: make(map[string]struct{}),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if s.doc.Entries == nil {
		s.doc.Entries = make(map[Kind]map[string]string)
	}
	for _, key := range s.doc.SyncedEdges {
		s.synced[key] = struct{}{}
	}

	return s, nil
}

// Get returns the remote ID recorded for (kind, key), if any.
func (s *Store) Get(kind Kind, key string) (string, bool) {
	entries, ok := s.doc.Entries[kind]
	if !ok {
		return "", false
	}
	id, ok := entries[key]
	return id, ok
}

// Put records the remote ID for (kind, key) and flushes the store.
// Overwriting an existing entry with the same or a new ID is allowed.
func (s *Store) Put(kind Kind, key, id string) error {
	entries, ok := s.doc.Entries[kind]
	if !ok {
		entries = make(map[string]string)
		s.doc.Entries[kind] = entries
	}
	entries[key] = id
	return s.save()
}

// Entries returns a copy of all entries for a kind.
func (s *Store) Entries(kind Kind) map[string]string {
	out := make(map[string]string, len(s.doc.Entries[kind]))
	for key, id := range s.doc.Entries[kind] {
		out[key] = id
	}
	return out
}

// EdgeSynced reports whether the resolved triple was already confirmed on
// the remote side in this or a previous run.
func (s *Store) EdgeSynced(e Edge) bool {
	_, ok := s.synced[e.Key()]
	return ok
}

// MarkEdgeSynced adds the triple to the synced set and flushes the store.
func (s *Store) MarkEdgeSynced(e Edge) error {
	key := e.Key()
	if _, ok := s.synced[key]; ok {
		return nil
	}
	s.synced[key] = struct{}{}
	s.doc.SyncedEdges = append(s.doc.SyncedEdges, key)
	return s.save()
}

// SyncedEdges returns the confirmed triples, sorted by key.
func (s *Store) SyncedEdges() []Edge {
	keys := make([]string, 0, len(s.synced))
	for key := range s.synced {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	edges := make([]Edge, 0, len(keys))
	for _, key := range keys {
		parts := strings.SplitN(key, "|", 3)
		if len(parts) != 3 {
			continue
		}
		edges = append(edges, Edge{SourceID: parts[0], TypeID: parts[1], TargetID: parts[2]})
	}
	return edges
}

// save rewrites the state file atomically: marshal to a temp file in the
// same directory, then rename over the target.
func (s *Store) save() error {
	sort.Strings(s.doc.SyncedEdges)

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
