package cmd

import (
	"fmt"

	"cmdb-sync/feature/relsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var relSyncDryRun bool

// relationshipsCmd is the parent command for relationship operations.
var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Synchronize declared relationships",
}

var relationshipsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Submit declared relationships to the record store in bulk",
	Long: `Resolve the relationships declared in the manifests against the
correspondence store and submit the unsynced ones in batches. Edges the
remote side already has count as synchronized.`,
	RunE: runRelationshipsSync,
}

func init() {
	relationshipsSyncCmd.Flags().BoolVar(&relSyncDryRun, "dry-run", false, "Report resolvable edges without submitting anything")
	relationshipsCmd.AddCommand(relationshipsSyncCmd)
	RootCmd.AddCommand(relationshipsCmd)
}

func runRelationshipsSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRuntime()
	if err != nil {
		return err
	}
	set, err := r.loadManifests(ctx)
	if err != nil {
		return err
	}

	syncer := relsync.NewSyncer(r.client, r.store, r.cfg.Sync, r.log)
	summary := syncer.Sync(ctx, set.Edges, relSyncDryRun)

	r.log.Info("Relationship sync summary",
		zap.Int("synced", summary.Synced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("planned", summary.Planned),
	)
	for _, o := range summary.Outcomes {
		if o.Action != relsync.ActionFailed {
			continue
		}
		r.log.Error("Relationship failed",
			zap.String("source", o.Source),
			zap.String("kind", o.Kind),
			zap.String("target", o.Target),
			zap.String("reason", o.Reason),
		)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d relationships failed to synchronize", summary.Failed)
	}
	return nil
}
