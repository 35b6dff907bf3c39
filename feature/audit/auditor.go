package audit

import (
	"context"
	"fmt"
	"time"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/state"
	"cmdb-sync/core/utils"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/manifest"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor compares the three sources of truth and reports drift.
type Auditor struct {
	client cmdb.Client
	store  *state.Store
	log    *zap.Logger
}

// NewAuditor creates an auditor.
func NewAuditor(client cmdb.Client, store *state.Store, log *zap.Logger) *Auditor {
	return &Auditor{client: client, store: store, log: log}
}

// Run executes a full audit: coverage, staleness, type accuracy and
// orphan detection. It reads the fleet, the remote store and the local
// state but writes nothing.
func (a *Auditor) Run(ctx context.Context, source fleet.Source, tables *classify.Tables, set *manifest.Set) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.New(), GeneratedAt: started.UTC()}

	hosts, err := source.ListHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fleet hosts: %w", err)
	}

	remote, err := a.listServerRecords(ctx)
	if err != nil {
		return nil, err
	}

	// Index every remote record under all of its name variants so the
	// coverage pass tolerates the same naming drift the staleness pass
	// does: a short fleet name still finds the FQDN-named record.
	remoteByName := make(map[string]*cmdb.Record, len(remote)*2)
	for i := range remote {
		for _, variant := range utils.HostnameVariants(remote[i].Name) {
			remoteByName[variant] = &remote[i]
		}
	}

	// Every probe form of every fleet host, for the staleness pass.
	fleetNames := make(map[string]bool, len(hosts)*2)

	for _, host := range hosts {
		for _, variant := range utils.HostnameVariants(host.Hostname) {
			fleetNames[variant] = true
		}

		enr, _, err := source.Enrichment(ctx, host.Hostname)
		if err != nil {
			a.log.Warn("Enrichment lookup failed during audit",
				zap.String("host", host.Hostname), zap.Error(err))
			enr = fleet.Enrichment{}
		}
		cl := classify.Classify(host, enr, tables)
		name := utils.NormalizeHostname(host.Hostname)

		if cl.Exclude {
			report.Excluded = append(report.Excluded, Finding{Name: name, Detail: cl.Reason})
			continue
		}

		rec := a.findRemote(remoteByName, host.Hostname)
		if rec == nil {
			report.Missing = append(report.Missing, Finding{
				Name:   name,
				Type:   cl.Type,
				Detail: "present in fleet, absent from record store",
			})
			continue
		}
		if rec.Type != cl.Type {
			report.TypeMismatch = append(report.TypeMismatch, Finding{
				Name:   name,
				ID:     rec.ID,
				Type:   rec.Type,
				Detail: fmt.Sprintf("classified as %s; manual reclassification required", cl.Type),
			})
		}
	}

	// Staleness: a live remote server record no fleet host answers to.
	for _, rec := range remote {
		if rec.Lifecycle == cmdb.LifecycleDecommissioned {
			continue
		}
		name := utils.NormalizeHostname(rec.Name)
		if fleetNames[name] || fleetNames[utils.ShortHostname(rec.Name)] {
			continue
		}
		detail := "no matching host in fleet inventory"
		if site := utils.ToString(rec.Attributes["site"]); site != "" {
			// The site attribute tells operators where to look for the
			// hardware before marking it decommissioned.
			detail = fmt.Sprintf("no matching host in fleet inventory (site %s)", site)
		}
		finding := Finding{
			Name:   name,
			ID:     rec.ID,
			Type:   rec.Type,
			Detail: detail,
		}
		if !rec.UpdatedAt.IsZero() {
			finding.LastModified = rec.UpdatedAt.UTC().Format(time.RFC3339)
		}
		report.Stale = append(report.Stale, finding)
	}

	a.findOrphans(set, report)

	report.Summary = Summary{
		FleetHosts:   len(hosts),
		RemoteHosts:  len(remote),
		DeclaredCIs:  set.Len(),
		Missing:      len(report.Missing),
		Stale:        len(report.Stale),
		TypeMismatch: len(report.TypeMismatch),
		Orphaned:     len(report.Orphaned),
		Excluded:     len(report.Excluded),
	}
	report.Elapsed = time.Since(started).Round(time.Millisecond).String()

	a.log.Info("Audit complete",
		zap.String("run_id", report.RunID.String()),
		zap.Int("missing", report.Summary.Missing),
		zap.Int("stale", report.Summary.Stale),
		zap.Int("type_mismatch", report.Summary.TypeMismatch),
		zap.Int("orphaned", report.Summary.Orphaned),
	)
	return report, nil
}

// listServerRecords pulls every server-class record, type by type.
func (a *Auditor) listServerRecords(ctx context.Context) ([]cmdb.Record, error) {
	var records []cmdb.Record
	for _, recordType := range cmdb.ServerClassTypes {
		page, err := a.client.List(ctx, state.KindAsset, recordType)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s records: %w", recordType, err)
		}
		records = append(records, page...)
	}
	return records, nil
}

// findRemote probes the remote name index with each hostname variant.
func (a *Auditor) findRemote(byName map[string]*cmdb.Record, hostname string) *cmdb.Record {
	for _, variant := range utils.HostnameVariants(hostname) {
		if rec, ok := byName[variant]; ok {
			return rec
		}
	}
	return nil
}

// findOrphans flags declared CIs that no synchronized relationship
// touches. A CI without a store entry cannot have edges either.
func (a *Auditor) findOrphans(set *manifest.Set, report *Report) {
	endpoints := make(map[string]bool)
	for _, edge := range a.store.SyncedEdges() {
		endpoints[edge.SourceID] = true
		endpoints[edge.TargetID] = true
	}

	for _, ci := range set.All() {
		id, ok := a.store.Get(ci.Kind, ci.Name)
		if ok && endpoints[id] {
			continue
		}
		detail := "no synchronized relationships"
		if !ok {
			detail = "never synchronized; no relationships"
		}
		report.Orphaned = append(report.Orphaned, Finding{
			Name:   ci.Name,
			ID:     id,
			Type:   string(ci.Kind),
			Detail: detail,
		})
	}
}
