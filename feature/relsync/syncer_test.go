package relsync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/cmdb/mocks"
	"cmdb-sync/core/state"
	"cmdb-sync/feature/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSyncer(t *testing.T) (*Syncer, *mocks.Client, *state.Store) {
	t.Helper()
	store, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	client := new(mocks.Client)
	syncer := NewSyncer(client, store, Config{BatchSize: 10}, zap.NewNop())
	syncer.schedule = []time.Duration{time.Millisecond, time.Millisecond}
	return syncer, client, store
}

func TestResolveAlias(t *testing.T) {
	rel, ok := ResolveAlias("Depends On")
	require.True(t, ok)
	assert.Equal(t, "depends-on", rel.TypeID)
	assert.False(t, rel.Reversed)

	rel, ok = ResolveAlias("hosts")
	require.True(t, ok)
	assert.Equal(t, "hosted-on", rel.TypeID)
	assert.True(t, rel.Reversed)

	_, ok = ResolveAlias("is friends with")
	assert.False(t, ok)
}

// TestSyncer_Batching tests that edges are submitted in batches of the
// configured size.
func TestSyncer_Batching(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	edges := make([]manifest.Edge, 12)
	for i := range edges {
		name := fmt.Sprintf("db-%02d", i)
		require.NoError(t, store.Put(state.KindDatabase, name, "db-"+name))
		edges[i] = manifest.Edge{Source: "Payroll", Kind: "depends on", Target: name}
	}

	var batchSizes []int
	client.On("CreateRelationshipsBulk", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			batchSizes = append(batchSizes, len(args.Get(1).([]cmdb.RelationshipPayload)))
		}).
		Return("job-1", nil).Twice()
	client.On("GetJob", mock.Anything, "job-1").
		Return(&cmdb.Job{ID: "job-1", State: cmdb.JobSuccess}, nil)

	summary := syncer.Sync(context.Background(), edges, false)
	assert.Equal(t, 12, summary.Synced)
	assert.Equal(t, []int{10, 2}, batchSizes)
	client.AssertExpectations(t)
}

// TestSyncer_SecondRunSkips tests that a confirmed edge is never
// resubmitted.
func TestSyncer_SecondRunSkips(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	require.NoError(t, store.Put(state.KindDatabase, "ordersdb", "db-1"))
	require.NoError(t, store.MarkEdgeSynced(state.Edge{SourceID: "svc-1", TypeID: "depends-on", TargetID: "db-1"}))

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "Payroll", Kind: "depends on", Target: "ordersdb"},
	}, false)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "already synced", summary.Outcomes[0].Reason)
	client.AssertNotCalled(t, "CreateRelationshipsBulk", mock.Anything, mock.Anything)
}

// TestSyncer_ReversedAlias tests that reversed phrasings submit the
// swapped triple and collapse onto the forward one.
func TestSyncer_ReversedAlias(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindAsset, "web01", "a1"))
	require.NoError(t, store.Put(state.KindITService, "storefront", "svc-9"))

	var submitted []cmdb.RelationshipPayload
	client.On("CreateRelationshipsBulk", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			submitted = args.Get(1).([]cmdb.RelationshipPayload)
		}).
		Return("job-1", nil).Once()
	client.On("GetJob", mock.Anything, "job-1").
		Return(&cmdb.Job{ID: "job-1", State: cmdb.JobSuccess}, nil)

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "WEB01", Kind: "hosts", Target: "storefront"},
		{Source: "storefront", Kind: "runs on", Target: "web01"},
	}, false)

	// "A hosts B" and "B runs on A" are the same triple
	require.Len(t, submitted, 1)
	assert.Equal(t, "svc-9", submitted[0].SourceID)
	assert.Equal(t, "hosted-on", submitted[0].TypeID)
	assert.Equal(t, "a1", submitted[0].TargetID)

	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 1, summary.Skipped)
	client.AssertExpectations(t)
}

// TestSyncer_SkipsUnmappedAndUnresolved tests the skip reasons for unknown
// phrasings and unknown endpoints.
func TestSyncer_SkipsUnmappedAndUnresolved(t *testing.T) {
	syncer, client, store := newTestSyncer(t)
	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "Payroll", Kind: "is friends with", Target: "Payroll"},
		{Source: "ghost", Kind: "depends on", Target: "Payroll"},
		{Source: "Payroll", Kind: "depends on", Target: "ghost"},
	}, false)

	require.Equal(t, 3, summary.Skipped)
	assert.Contains(t, summary.Outcomes[0].Reason, "unknown relationship kind")
	assert.Contains(t, summary.Outcomes[1].Reason, `source "ghost"`)
	assert.Contains(t, summary.Outcomes[2].Reason, `target "ghost"`)
	client.AssertNotCalled(t, "CreateRelationshipsBulk", mock.Anything, mock.Anything)
}

// TestSyncer_DuplicateVerdict tests that a remote duplicate rejection
// counts as confirmation.
func TestSyncer_DuplicateVerdict(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	require.NoError(t, store.Put(state.KindDatabase, "ordersdb", "db-1"))

	client.On("CreateRelationshipsBulk", mock.Anything, mock.Anything).Return("job-1", nil).Once()
	client.On("GetJob", mock.Anything, "job-1").Return(&cmdb.Job{
		ID:    "job-1",
		State: cmdb.JobFailed,
		Items: []cmdb.JobItem{{Index: 0, Status: "failed", Error: "relationship already exists"}},
	}, nil)

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "Payroll", Kind: "depends on", Target: "ordersdb"},
	}, false)

	assert.Equal(t, 1, summary.Synced)
	assert.True(t, store.EdgeSynced(state.Edge{SourceID: "svc-1", TypeID: "depends-on", TargetID: "db-1"}))
	client.AssertExpectations(t)
}

// TestSyncer_PollBudgetExhausted tests that a job that never settles marks
// the batch failed and confirms nothing.
func TestSyncer_PollBudgetExhausted(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	require.NoError(t, store.Put(state.KindDatabase, "ordersdb", "db-1"))

	client.On("CreateRelationshipsBulk", mock.Anything, mock.Anything).Return("job-1", nil).Once()
	client.On("GetJob", mock.Anything, "job-1").
		Return(&cmdb.Job{ID: "job-1", State: cmdb.JobPending}, nil)

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "Payroll", Kind: "depends on", Target: "ordersdb"},
	}, false)

	require.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Outcomes[0].Reason, "indeterminate")
	assert.False(t, store.EdgeSynced(state.Edge{SourceID: "svc-1", TypeID: "depends-on", TargetID: "db-1"}))
}

// TestSyncer_DryRun tests that dry-run plans resolvable edges without any
// remote call.
func TestSyncer_DryRun(t *testing.T) {
	syncer, client, store := newTestSyncer(t)

	require.NoError(t, store.Put(state.KindBusinessService, "Payroll", "svc-1"))
	require.NoError(t, store.Put(state.KindDatabase, "ordersdb", "db-1"))

	summary := syncer.Sync(context.Background(), []manifest.Edge{
		{Source: "Payroll", Kind: "depends on", Target: "ordersdb"},
		{Source: "Payroll", Kind: "depends on", Target: "ghost"},
	}, true)

	assert.Equal(t, 1, summary.Planned)
	assert.Equal(t, 1, summary.Skipped)
	client.AssertNotCalled(t, "CreateRelationshipsBulk", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
}
