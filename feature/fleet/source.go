package fleet

import (
	"context"

	"cmdb-sync/core/utils"
)

// Source abstracts the fleet collector. Implementations return the live
// host list and per-host enrichment.
type Source interface {
	// ListHosts returns every managed host known to the collector.
	ListHosts(ctx context.Context) ([]HostRecord, error)
	// Enrichment returns the collector signals for a hostname. The second
	// return value is false when the collector has no enrichment for the
	// host; that is not an error.
	Enrichment(ctx context.Context, hostname string) (Enrichment, bool, error)
}

// StaticSource serves a fixed host list from memory. It backs tests and
// offline runs against exported inventory snapshots.
type StaticSource struct {
	Hosts       []HostRecord
	Enrichments map[string]Enrichment
}

// Compile-time interface check.
var _ Source = (*StaticSource)(nil)

// ListHosts returns the preset host list.
func (s *StaticSource) ListHosts(context.Context) ([]HostRecord, error) {
	return s.Hosts, nil
}

// Enrichment looks up the preset enrichment by normalized hostname.
func (s *StaticSource) Enrichment(_ context.Context, hostname string) (Enrichment, bool, error) {
	enr, ok := s.Enrichments[utils.NormalizeHostname(hostname)]
	return enr, ok, nil
}
