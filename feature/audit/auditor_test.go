package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/cmdb/mocks"
	"cmdb-sync/core/state"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuditor(t *testing.T) (*Auditor, *mocks.Client, *state.Store) {
	t.Helper()
	store, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	client := new(mocks.Client)
	return NewAuditor(client, store, zap.NewNop()), client, store
}

// mockRemote registers list expectations: the given records for their own
// types, empty pages for every other server-class type.
func mockRemote(client *mocks.Client, records ...cmdb.Record) {
	byType := make(map[string][]cmdb.Record)
	for _, rec := range records {
		byType[rec.Type] = append(byType[rec.Type], rec)
	}
	for _, recordType := range cmdb.ServerClassTypes {
		client.On("List", mock.Anything, state.KindAsset, recordType).
			Return(byType[recordType], nil)
	}
}

func emptySet(t *testing.T) *manifest.Set {
	t.Helper()
	return manifest.Aggregate(nil, zap.NewNop())
}

// TestAuditor_Drift tests the canonical drift scenario: one host missing
// remotely, one remote record with no backing host, one clean match.
func TestAuditor_Drift(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	source := &fleet.StaticSource{
		Hosts: []fleet.HostRecord{
			{Hostname: "WEB01.corp.example.com", IP: "10.20.1.15", OS: "Windows Server 2022"},
			{Hostname: "DB01", IP: "10.70.3.9", OS: "Windows Server 2019"},
		},
		Enrichments: map[string]fleet.Enrichment{
			"db01": {CloudProvider: "aws"},
		},
	}

	mockRemote(client,
		cmdb.Record{ID: "r-web", Name: "WEB01", Type: cmdb.TypeVirtualServer, Lifecycle: "active"},
		cmdb.Record{ID: "r-old", Name: "LEGACY02", Type: cmdb.TypePhysicalServer, Lifecycle: "active",
			UpdatedAt:  time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
			Attributes: map[string]any{"site": "dc-east"}},
	)

	report, err := auditor.Run(context.Background(), source, classify.DefaultTables(), emptySet(t))
	require.NoError(t, err)

	require.Len(t, report.Missing, 1)
	assert.Equal(t, "db01", report.Missing[0].Name)
	assert.Equal(t, cmdb.TypeCloudServer, report.Missing[0].Type)

	require.Len(t, report.Stale, 1)
	assert.Equal(t, "legacy02", report.Stale[0].Name)
	assert.Equal(t, "r-old", report.Stale[0].ID)
	assert.Equal(t, "2025-11-03T09:30:00Z", report.Stale[0].LastModified)
	assert.Contains(t, report.Stale[0].Detail, "site dc-east")

	// WEB01 classifies virtual-server and the record agrees
	assert.Empty(t, report.TypeMismatch)
	assert.Empty(t, report.Orphaned)

	assert.Equal(t, 2, report.Summary.FleetHosts)
	assert.Equal(t, 2, report.Summary.RemoteHosts)
	assert.Equal(t, 1, report.Summary.Missing)
	assert.Equal(t, 1, report.Summary.Stale)
	assert.NotEmpty(t, report.RunID)
}

// TestAuditor_ShortNameMatchesFQDNRecord tests that a host inventoried by
// its short name still matches a remote record carrying the FQDN. Both the
// coverage and the staleness pass must recognize the pair as the same
// machine.
func TestAuditor_ShortNameMatchesFQDNRecord(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	source := &fleet.StaticSource{
		Hosts: []fleet.HostRecord{
			{Hostname: "web01", IP: "10.20.1.15", OS: "Windows Server 2022"},
		},
	}
	mockRemote(client,
		cmdb.Record{ID: "r-web", Name: "WEB01.corp.example.com", Type: cmdb.TypeVirtualServer, Lifecycle: "active"},
	)

	report, err := auditor.Run(context.Background(), source, classify.DefaultTables(), emptySet(t))
	require.NoError(t, err)

	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Stale)
	assert.Empty(t, report.TypeMismatch)
}

// TestAuditor_TypeMismatch tests that a disagreeing record type is
// reported but never corrected.
func TestAuditor_TypeMismatch(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	source := &fleet.StaticSource{
		Hosts: []fleet.HostRecord{
			{Hostname: "web01", IP: "10.20.1.15", OS: "Windows Server 2022"},
		},
	}
	mockRemote(client,
		cmdb.Record{ID: "r-web", Name: "web01", Type: cmdb.TypePhysicalServer, Lifecycle: "active"},
	)

	report, err := auditor.Run(context.Background(), source, classify.DefaultTables(), emptySet(t))
	require.NoError(t, err)

	require.Len(t, report.TypeMismatch, 1)
	assert.Equal(t, cmdb.TypePhysicalServer, report.TypeMismatch[0].Type)
	assert.Contains(t, report.TypeMismatch[0].Detail, cmdb.TypeVirtualServer)
	assert.Contains(t, report.TypeMismatch[0].Detail, "manual reclassification required")
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Stale)
	client.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestAuditor_ExcludedNotMissing tests that excluded hosts are reported
// separately instead of as coverage gaps.
func TestAuditor_ExcludedNotMissing(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	source := &fleet.StaticSource{
		Hosts: []fleet.HostRecord{
			{Hostname: "esx01", OS: "VMware ESXi 8.0"},
			{Hostname: "phone-ceo", OS: "iOS 17.5"},
		},
	}
	mockRemote(client)

	report, err := auditor.Run(context.Background(), source, classify.DefaultTables(), emptySet(t))
	require.NoError(t, err)

	assert.Empty(t, report.Missing)
	require.Len(t, report.Excluded, 2)
	assert.Equal(t, 2, report.Summary.Excluded)
}

// TestAuditor_Orphans tests orphan detection against the synced edge set.
func TestAuditor_Orphans(t *testing.T) {
	auditor, client, store := newTestAuditor(t)
	mockRemote(client)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	require.NoError(t, store.Put(state.KindDatabase, "ordersdb", "db-1"))
	require.NoError(t, store.Put(state.KindITService, "idle-agent", "svc-2"))
	require.NoError(t, store.MarkEdgeSynced(state.Edge{SourceID: "svc-1", TypeID: "depends-on", TargetID: "db-1"}))

	set := manifest.Aggregate([]manifest.Document{{
		Name:             "cis.yaml",
		BusinessServices: []manifest.ServiceRow{{Name: "Payroll", Owner: "hr"}},
		ITServices:       []manifest.ITServiceRow{{Name: "idle-agent", Vendor: "acme"}},
		Databases:        []manifest.DatabaseRow{{Name: "ordersdb", Engine: "mysql"}},
	}}, zap.NewNop())

	report, err := auditor.Run(context.Background(), &fleet.StaticSource{}, classify.DefaultTables(), set)
	require.NoError(t, err)

	require.Len(t, report.Orphaned, 1)
	assert.Equal(t, "idle-agent", report.Orphaned[0].Name)
	assert.Equal(t, "no synchronized relationships", report.Orphaned[0].Detail)
	assert.Equal(t, 3, report.Summary.DeclaredCIs)
}

// TestAuditor_MarkStale tests that mark-stale updates lifecycles and
// nothing else.
func TestAuditor_MarkStale(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	findings := []Finding{
		{Name: "legacy02", ID: "r-old", Type: cmdb.TypePhysicalServer},
		{Name: "unmatched", ID: ""},
	}

	client.On("Update", mock.Anything, state.KindAsset, "r-old", map[string]any{
		"lifecycle": cmdb.LifecycleDecommissioned,
	}).Return(nil).Once()

	summary := auditor.MarkStale(context.Background(), findings, false)
	assert.Equal(t, 1, summary.Marked)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "no remote id")
	client.AssertExpectations(t)
}

// TestAuditor_MarkStaleDryRun tests that dry-run plans without touching
// the remote store.
func TestAuditor_MarkStaleDryRun(t *testing.T) {
	auditor, client, _ := newTestAuditor(t)

	summary := auditor.MarkStale(context.Background(), []Finding{
		{Name: "legacy02", ID: "r-old"},
	}, true)

	assert.Equal(t, 1, summary.Planned)
	assert.Zero(t, summary.Marked)
	client.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
