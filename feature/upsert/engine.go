package upsert

import (
	"context"
	"fmt"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/state"
	"cmdb-sync/core/utils"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/manifest"

	"go.uber.org/zap"
)

// Action is the outcome class of one upsert.
type Action string

const (
	// ActionCreated means a new remote record was created.
	ActionCreated Action = "created"
	// ActionUpdated means an existing remote record was updated.
	ActionUpdated Action = "updated"
	// ActionSkipped means the record was not touched; Reason says why.
	ActionSkipped Action = "skipped"
	// ActionPlanned is the dry-run outcome: the resolution and payload
	// are reported without any remote call.
	ActionPlanned Action = "planned"
)

// Outcome is the per-record result of an upsert.
type Outcome struct {
	Name    string         `json:"name"`
	Action  Action         `json:"action"`
	ID      string         `json:"id,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Summary aggregates a batch of outcomes.
type Summary struct {
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Planned  int       `json:"planned"`
	Outcomes []Outcome `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	switch o.Action {
	case ActionCreated:
		s.Created++
	case ActionUpdated:
		s.Updated++
	case ActionSkipped:
		s.Skipped++
	case ActionPlanned:
		s.Planned++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Engine performs idempotent create-or-update against the record store.
type Engine struct {
	client cmdb.Client
	store  *state.Store
	log    *zap.Logger
}

// NewEngine creates an upsert engine.
func NewEngine(client cmdb.Client, store *state.Store, log *zap.Logger) *Engine {
	return &Engine{client: client, store: store, log: log}
}

// UpsertHost creates or updates the asset record for one classified host.
func (e *Engine) UpsertHost(ctx context.Context, host fleet.HostRecord, enr fleet.Enrichment, cl classify.Classification, dryRun bool) Outcome {
	name := utils.NormalizeHostname(host.Hostname)

	if cl.Exclude {
		return Outcome{Name: name, Action: ActionSkipped, Reason: cl.Reason}
	}

	payload := HostPayload(host, enr, cl)
	variants := utils.HostnameVariants(host.Hostname)

	// Resolve via the correspondence store first.
	id, key := e.resolveStored(state.KindAsset, variants)

	if dryRun {
		// Dry-run reports resolution and payload and issues no remote
		// call, so the search fallback is skipped too.
		reason := "would create"
		if id != "" {
			reason = "would update"
		}
		return Outcome{Name: name, Action: ActionPlanned, ID: id, Reason: reason, Payload: payload}
	}

	// On a store miss, fall back to an exact-name remote search across the
	// name variants; first hit wins.
	if id == "" {
		for _, variant := range variants {
			rec, err := e.client.Search(ctx, state.KindAsset, variant)
			if err != nil {
				return Outcome{Name: name, Action: ActionSkipped, Reason: fmt.Sprintf("remote search for %q failed: %v", variant, err)}
			}
			if rec != nil {
				id, key = rec.ID, name
				// Remember the correspondence so future runs resolve
				// without searching.
				if err := e.store.Put(state.KindAsset, key, id); err != nil {
					return Outcome{Name: name, Action: ActionSkipped, Reason: fmt.Sprintf("failed to record correspondence: %v", err)}
				}
				break
			}
		}
	}

	if id != "" {
		if err := e.client.Update(ctx, state.KindAsset, id, updateBody(payload)); err != nil {
			return Outcome{Name: name, Action: ActionSkipped, ID: id, Reason: fmt.Sprintf("update failed: %v", err)}
		}
		e.log.Debug("Updated asset", zap.String("name", name), zap.String("id", id), zap.String("key", key))
		return Outcome{Name: name, Action: ActionUpdated, ID: id}
	}

	id, err := e.client.Create(ctx, state.KindAsset, payload)
	if err != nil {
		return Outcome{Name: name, Action: ActionSkipped, Reason: fmt.Sprintf("create failed: %v", err)}
	}
	if err := e.store.Put(state.KindAsset, name, id); err != nil {
		// The record exists remotely but the correspondence was lost;
		// surface loudly, the next run will re-resolve it by search.
		e.log.Error("Created asset but failed to record correspondence",
			zap.String("name", name), zap.String("id", id), zap.Error(err))
		return Outcome{Name: name, Action: ActionCreated, ID: id, Reason: fmt.Sprintf("correspondence not recorded: %v", err)}
	}
	e.log.Debug("Created asset", zap.String("name", name), zap.String("id", id))
	return Outcome{Name: name, Action: ActionCreated, ID: id}
}

// UpsertFleet classifies and upserts every host from the source. Per-host
// failures are collected into the summary and never abort the batch.
func (e *Engine) UpsertFleet(ctx context.Context, source fleet.Source, tables *classify.Tables, dryRun bool) (*Summary, error) {
	hosts, err := source.ListHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fleet hosts: %w", err)
	}

	summary := &Summary{}
	for _, host := range hosts {
		enr, _, err := source.Enrichment(ctx, host.Hostname)
		if err != nil {
			// Enrichment loss degrades classification but is not fatal;
			// the IP-range fallbacks still apply.
			e.log.Warn("Enrichment lookup failed", zap.String("host", host.Hostname), zap.Error(err))
			enr = fleet.Enrichment{}
		}

		cl := classify.Classify(host, enr, tables)
		outcome := e.UpsertHost(ctx, host, enr, cl, dryRun)
		if outcome.Action == ActionSkipped {
			e.log.Info("Skipped host",
				zap.String("host", outcome.Name),
				zap.String("reason", outcome.Reason),
			)
		}
		summary.add(outcome)
	}
	return summary, nil
}

// UpsertCI creates or updates the record for one declared CI.
func (e *Engine) UpsertCI(ctx context.Context, ci manifest.CI, dryRun bool) Outcome {
	payload := CIPayload(ci)

	id, _ := e.store.Get(ci.Kind, ci.Name)

	if dryRun {
		reason := "would create"
		if id != "" {
			reason = "would update"
		}
		return Outcome{Name: ci.Name, Action: ActionPlanned, ID: id, Reason: reason, Payload: payload}
	}

	if id == "" {
		rec, err := e.client.Search(ctx, ci.Kind, ci.Name)
		if err != nil {
			return Outcome{Name: ci.Name, Action: ActionSkipped, Reason: fmt.Sprintf("remote search failed: %v", err)}
		}
		if rec != nil {
			id = rec.ID
			if err := e.store.Put(ci.Kind, ci.Name, id); err != nil {
				return Outcome{Name: ci.Name, Action: ActionSkipped, Reason: fmt.Sprintf("failed to record correspondence: %v", err)}
			}
		}
	}

	if id != "" {
		if err := e.client.Update(ctx, ci.Kind, id, payload); err != nil {
			return Outcome{Name: ci.Name, Action: ActionSkipped, ID: id, Reason: fmt.Sprintf("update failed: %v", err)}
		}
		return Outcome{Name: ci.Name, Action: ActionUpdated, ID: id}
	}

	id, err := e.client.Create(ctx, ci.Kind, payload)
	if err != nil {
		return Outcome{Name: ci.Name, Action: ActionSkipped, Reason: fmt.Sprintf("create failed: %v", err)}
	}
	if err := e.store.Put(ci.Kind, ci.Name, id); err != nil {
		e.log.Error("Created CI but failed to record correspondence",
			zap.String("name", ci.Name), zap.String("id", id), zap.Error(err))
		return Outcome{Name: ci.Name, Action: ActionCreated, ID: id, Reason: fmt.Sprintf("correspondence not recorded: %v", err)}
	}
	return Outcome{Name: ci.Name, Action: ActionCreated, ID: id}
}

// UpsertManifests upserts every aggregated CI, kind by kind.
func (e *Engine) UpsertManifests(ctx context.Context, set *manifest.Set, dryRun bool) *Summary {
	summary := &Summary{}
	for _, ci := range set.All() {
		outcome := e.UpsertCI(ctx, ci, dryRun)
		if outcome.Action == ActionSkipped {
			e.log.Info("Skipped CI",
				zap.String("name", outcome.Name),
				zap.String("reason", outcome.Reason),
			)
		}
		summary.add(outcome)
	}
	return summary
}

// resolveStored probes the correspondence store with each variant and
// returns the first hit.
func (e *Engine) resolveStored(kind state.Kind, variants []string) (id, key string) {
	for _, variant := range variants {
		if found, ok := e.store.Get(kind, variant); ok {
			return found, variant
		}
	}
	return "", ""
}
