package cmd

import (
	"fmt"

	"cmdb-sync/core/utils"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/upsert"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var upsertDryRun bool

// upsertCmd is the parent command for all upsert operations.
var upsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update records in the remote store",
	Long: `Upsert fleet hosts and declared configuration items into the record
store. Resolution goes through the local correspondence store first, then an
exact-name remote search, and creates only when both miss, so re-running is
always safe.`,
}

var upsertAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Upsert every fleet host and every declared CI",
	RunE:  runUpsertAll,
}

var upsertHostCmd = &cobra.Command{
	Use:   "host <hostname>",
	Short: "Upsert a single fleet host",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpsertHost,
}

var upsertCIsCmd = &cobra.Command{
	Use:   "cis",
	Short: "Upsert the declared configuration items from the manifests",
	RunE:  runUpsertCIs,
}

func init() {
	upsertCmd.PersistentFlags().BoolVar(&upsertDryRun, "dry-run", false, "Report planned actions without calling the record store")
	upsertCmd.AddCommand(upsertAllCmd, upsertHostCmd, upsertCIsCmd)
	RootCmd.AddCommand(upsertCmd)
}

func runUpsertAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRuntime()
	if err != nil {
		return err
	}
	engine := upsert.NewEngine(r.client, r.store, r.log)

	source, err := r.fleetSource()
	if err != nil {
		return err
	}
	tables, err := r.tables()
	if err != nil {
		return err
	}

	fleetSummary, err := engine.UpsertFleet(ctx, source, tables, upsertDryRun)
	if err != nil {
		return err
	}
	logUpsertSummary(r.log, "fleet", fleetSummary)

	set, err := r.loadManifests(ctx)
	if err != nil {
		return err
	}
	ciSummary := engine.UpsertManifests(ctx, set, upsertDryRun)
	logUpsertSummary(r.log, "manifests", ciSummary)

	return nil
}

func runUpsertHost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	wanted := utils.NormalizeHostname(args[0])

	r, err := newRuntime()
	if err != nil {
		return err
	}
	source, err := r.fleetSource()
	if err != nil {
		return err
	}
	tables, err := r.tables()
	if err != nil {
		return err
	}

	hosts, err := source.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list fleet hosts: %w", err)
	}

	var host *fleet.HostRecord
	for i := range hosts {
		if utils.NormalizeHostname(hosts[i].Hostname) == wanted ||
			utils.ShortHostname(hosts[i].Hostname) == wanted {
			host = &hosts[i]
			break
		}
	}
	if host == nil {
		return fmt.Errorf("host %q not found in fleet inventory", args[0])
	}

	enr, _, err := source.Enrichment(ctx, host.Hostname)
	if err != nil {
		r.log.Warn("Enrichment lookup failed", zap.String("host", host.Hostname), zap.Error(err))
		enr = fleet.Enrichment{}
	}
	cl := classify.Classify(*host, enr, tables)

	engine := upsert.NewEngine(r.client, r.store, r.log)
	outcome := engine.UpsertHost(ctx, *host, enr, cl, upsertDryRun)

	r.log.Info("Upsert outcome",
		zap.String("host", outcome.Name),
		zap.String("action", string(outcome.Action)),
		zap.String("id", outcome.ID),
		zap.String("rule", cl.Rule),
		zap.String("reason", outcome.Reason),
	)
	return nil
}

func runUpsertCIs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRuntime()
	if err != nil {
		return err
	}
	set, err := r.loadManifests(ctx)
	if err != nil {
		return err
	}

	engine := upsert.NewEngine(r.client, r.store, r.log)
	summary := engine.UpsertManifests(ctx, set, upsertDryRun)
	logUpsertSummary(r.log, "manifests", summary)
	return nil
}

// logUpsertSummary logs the batch counts. Per-record skip reasons are
// already logged by the engine as they happen.
func logUpsertSummary(l *zap.Logger, scope string, s *upsert.Summary) {
	l.Info("Upsert summary",
		zap.String("scope", scope),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("skipped", s.Skipped),
		zap.Int("planned", s.Planned),
	)
}
