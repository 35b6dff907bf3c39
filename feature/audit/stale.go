package audit

import (
	"context"
	"fmt"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/state"

	"go.uber.org/zap"
)

// MarkSummary reports the outcome of a mark-stale pass.
type MarkSummary struct {
	Marked  int      `json:"marked"`
	Planned int      `json:"planned"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// MarkStale sets the lifecycle of every given stale record to
// decommissioned. Records are never deleted, so an operator can revive a
// wrongly flagged one by editing the lifecycle back. Dry-run counts the
// would-be updates without calling the remote store.
func (a *Auditor) MarkStale(ctx context.Context, findings []Finding, dryRun bool) *MarkSummary {
	summary := &MarkSummary{}
	for _, f := range findings {
		if f.ID == "" {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: no remote id", f.Name))
			continue
		}
		if dryRun {
			summary.Planned++
			continue
		}

		body := map[string]any{"lifecycle": cmdb.LifecycleDecommissioned}
		if err := a.client.Update(ctx, state.KindAsset, f.ID, body); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		a.log.Info("Marked record decommissioned",
			zap.String("name", f.Name), zap.String("id", f.ID))
		summary.Marked++
	}
	return summary
}
