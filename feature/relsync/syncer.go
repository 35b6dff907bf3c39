package relsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/state"
	"cmdb-sync/core/utils"
	"cmdb-sync/feature/manifest"

	"go.uber.org/zap"
)

// Config holds configuration for relationship synchronization.
type Config struct {
	// BatchSize is the number of edges submitted per bulk job.
	BatchSize int `mapstructure:"batch_size" default:"10"`
}

// EdgeAction is the outcome class of one declared edge.
type EdgeAction string

const (
	// ActionSynced means the edge is confirmed on the remote side.
	ActionSynced EdgeAction = "synced"
	// ActionSkipped means the edge was not submitted; Reason says why.
	ActionSkipped EdgeAction = "skipped"
	// ActionFailed means the remote side rejected the edge or the job
	// outcome could not be determined.
	ActionFailed EdgeAction = "failed"
	// ActionPlanned is the dry-run outcome.
	ActionPlanned EdgeAction = "planned"
)

// EdgeOutcome is the per-edge result, keyed by the declared names.
type EdgeOutcome struct {
	Source string     `json:"source"`
	Kind   string     `json:"kind"`
	Target string     `json:"target"`
	Action EdgeAction `json:"action"`
	Reason string     `json:"reason,omitempty"`
}

// Summary aggregates the outcomes of one sync run.
type Summary struct {
	Synced   int           `json:"synced"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Planned  int           `json:"planned"`
	Outcomes []EdgeOutcome `json:"outcomes"`
}

func (s *Summary) add(o EdgeOutcome) {
	switch o.Action {
	case ActionSynced:
		s.Synced++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
	case ActionPlanned:
		s.Planned++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// pollSchedule is the fixed wait sequence before each job status check.
// Short early probes catch fast jobs; the tail gives slow jobs 31 seconds
// in total before the run declares the batch indeterminate.
var pollSchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	5 * time.Second,
	5 * time.Second,
	5 * time.Second,
	5 * time.Second,
}

// Syncer submits declared relationships in batches and records confirmed
// edges in the correspondence store.
type Syncer struct {
	client    cmdb.Client
	store     *state.Store
	log       *zap.Logger
	batchSize int
	schedule  []time.Duration
}

// NewSyncer creates a relationship syncer.
func NewSyncer(client cmdb.Client, store *state.Store, cfg Config, log *zap.Logger) *Syncer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	return &Syncer{
		client:    client,
		store:     store,
		log:       log,
		batchSize: batch,
		schedule:  pollSchedule,
	}
}

// pendingEdge pairs a declared edge with its resolved triple.
type pendingEdge struct {
	declared manifest.Edge
	resolved state.Edge
}

// Sync resolves and submits the declared edges. Unmappable or unresolved
// edges are skipped with a reason; already-confirmed triples are skipped
// without a remote call. In dry-run mode nothing is submitted.
func (s *Syncer) Sync(ctx context.Context, edges []manifest.Edge, dryRun bool) *Summary {
	summary := &Summary{}
	seen := make(map[string]bool)
	var pending []pendingEdge

	for _, edge := range edges {
		rel, ok := ResolveAlias(edge.Kind)
		if !ok {
			s.skip(summary, edge, fmt.Sprintf("unknown relationship kind %q", edge.Kind))
			continue
		}

		sourceID, ok := s.resolveEndpoint(edge.Source)
		if !ok {
			s.skip(summary, edge, fmt.Sprintf("source %q has no known record", edge.Source))
			continue
		}
		targetID, ok := s.resolveEndpoint(edge.Target)
		if !ok {
			s.skip(summary, edge, fmt.Sprintf("target %q has no known record", edge.Target))
			continue
		}

		resolved := state.Edge{SourceID: sourceID, TypeID: rel.TypeID, TargetID: targetID}
		if rel.Reversed {
			resolved.SourceID, resolved.TargetID = targetID, sourceID
		}

		// Distinct phrasings can resolve to the same triple.
		if seen[resolved.Key()] {
			s.skip(summary, edge, "duplicate of an earlier edge in this run")
			continue
		}
		seen[resolved.Key()] = true

		if s.store.EdgeSynced(resolved) {
			s.skip(summary, edge, "already synced")
			continue
		}

		if dryRun {
			summary.add(EdgeOutcome{
				Source: edge.Source, Kind: edge.Kind, Target: edge.Target,
				Action: ActionPlanned, Reason: "would submit",
			})
			continue
		}
		pending = append(pending, pendingEdge{declared: edge, resolved: resolved})
	}

	for _, batch := range utils.Chunk(pending, s.batchSize) {
		s.syncBatch(ctx, batch, summary)
	}
	return summary
}

// syncBatch submits one batch and applies the job verdicts. A failure here
// marks the batch failed but never aborts the remaining batches.
func (s *Syncer) syncBatch(ctx context.Context, batch []pendingEdge, summary *Summary) {
	payload := make([]cmdb.RelationshipPayload, len(batch))
	for i, p := range batch {
		payload[i] = cmdb.RelationshipPayload{
			SourceID: p.resolved.SourceID,
			TypeID:   p.resolved.TypeID,
			TargetID: p.resolved.TargetID,
		}
	}

	jobID, err := s.client.CreateRelationshipsBulk(ctx, payload)
	if err != nil {
		s.failBatch(summary, batch, fmt.Sprintf("bulk submit failed: %v", err))
		return
	}

	job, err := s.waitForJob(ctx, jobID)
	if err != nil {
		s.failBatch(summary, batch, fmt.Sprintf("job %s poll failed: %v", jobID, err))
		return
	}
	if job == nil {
		// Indeterminate: the job may still land remotely, but nothing is
		// marked synced, so the next run resubmits and the remote side
		// reports duplicates as success.
		s.log.Warn("Bulk job still pending after poll budget", zap.String("job", jobID))
		s.failBatch(summary, batch, fmt.Sprintf("job %s still pending after %s; result indeterminate", jobID, pollBudget(s.schedule)))
		return
	}

	verdicts := make(map[int]cmdb.JobItem, len(job.Items))
	for _, item := range job.Items {
		verdicts[item.Index] = item
	}

	for i, p := range batch {
		item, ok := verdicts[i]
		if !ok {
			if job.State == cmdb.JobSuccess {
				s.confirm(summary, p, "")
			} else {
				s.fail(summary, p.declared, fmt.Sprintf("job %s returned no verdict for this edge", job.ID))
			}
			continue
		}

		switch {
		case item.Status == "success":
			s.confirm(summary, p, "")
		case duplicateVerdict(item.Error):
			// The edge already exists remotely, which is exactly the
			// desired end state.
			s.confirm(summary, p, "already existed")
		default:
			s.fail(summary, p.declared, item.Error)
		}
	}
}

// waitForJob polls the job on the fixed schedule. A nil job with nil error
// means the poll budget ran out while the job was still pending.
func (s *Syncer) waitForJob(ctx context.Context, jobID string) (*cmdb.Job, error) {
	for _, delay := range s.schedule {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		job, err := s.client.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.State != cmdb.JobPending {
			return job, nil
		}
	}
	return nil, nil
}

// resolveEndpoint maps a declared endpoint name to its remote ID. Asset
// names resolve through the hostname variants, then the CI kinds are
// probed with the exact name.
func (s *Syncer) resolveEndpoint(name string) (string, bool) {
	for _, variant := range utils.HostnameVariants(name) {
		if id, ok := s.store.Get(state.KindAsset, variant); ok {
			return id, true
		}
	}
	for _, kind := range state.CIKinds {
		if id, ok := s.store.Get(kind, name); ok {
			return id, true
		}
	}
	return "", false
}

func (s *Syncer) confirm(summary *Summary, p pendingEdge, reason string) {
	if err := s.store.MarkEdgeSynced(p.resolved); err != nil {
		// Confirmed remotely but not recorded; the next run resubmits and
		// lands on the duplicate path.
		s.log.Error("Edge confirmed but not recorded",
			zap.String("source", p.declared.Source),
			zap.String("target", p.declared.Target),
			zap.Error(err))
		reason = fmt.Sprintf("confirmation not recorded: %v", err)
	}
	summary.add(EdgeOutcome{
		Source: p.declared.Source, Kind: p.declared.Kind, Target: p.declared.Target,
		Action: ActionSynced, Reason: reason,
	})
}

func (s *Syncer) skip(summary *Summary, edge manifest.Edge, reason string) {
	s.log.Info("Skipped relationship",
		zap.String("source", edge.Source),
		zap.String("kind", edge.Kind),
		zap.String("target", edge.Target),
		zap.String("reason", reason))
	summary.add(EdgeOutcome{
		Source: edge.Source, Kind: edge.Kind, Target: edge.Target,
		Action: ActionSkipped, Reason: reason,
	})
}

func (s *Syncer) fail(summary *Summary, edge manifest.Edge, reason string) {
	summary.add(EdgeOutcome{
		Source: edge.Source, Kind: edge.Kind, Target: edge.Target,
		Action: ActionFailed, Reason: reason,
	})
}

func (s *Syncer) failBatch(summary *Summary, batch []pendingEdge, reason string) {
	for _, p := range batch {
		s.fail(summary, p.declared, reason)
	}
}

// duplicateVerdict reports whether a rejected edge failed only because it
// already exists.
func duplicateVerdict(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already exists") || strings.Contains(lower, "duplicate")
}

func pollBudget(schedule []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range schedule {
		total += d
	}
	return total
}
