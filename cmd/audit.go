package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cmdb-sync/feature/audit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	auditJSON        bool
	markStaleDryRun  bool
	markStaleConfirm bool
)

// auditCmd runs the read-only drift report.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit drift between fleet, manifests and the record store",
	Long: `Audit compares the fleet inventory, the declared manifests and the
remote record store. It reports missing assets, stale records, type
mismatches and orphaned CIs without changing anything. Outputs a summary
by default or the full report with --json.`,
	RunE: runAudit,
}

// markStaleCmd is the only write action the auditor offers.
var markStaleCmd = &cobra.Command{
	Use:   "mark-stale",
	Short: "Mark stale records as decommissioned",
	Long: `Run an audit and flip the lifecycle of every stale record to
decommissioned. Records are never deleted; a wrongly flagged record can be
revived by editing its lifecycle back.`,
	RunE: runMarkStale,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the full report as JSON")
	markStaleCmd.Flags().BoolVar(&markStaleDryRun, "dry-run", false, "Report records that would be marked without updating them")
	markStaleCmd.Flags().BoolVar(&markStaleConfirm, "yes", false, "Auto-confirm the lifecycle updates (non-interactive)")
	auditCmd.AddCommand(markStaleCmd)
	RootCmd.AddCommand(auditCmd)
}

func runAuditReport(cmd *cobra.Command) (*runtime, *audit.Report, error) {
	ctx := cmd.Context()

	r, err := newRuntime()
	if err != nil {
		return nil, nil, err
	}
	source, err := r.fleetSource()
	if err != nil {
		return nil, nil, err
	}
	tables, err := r.tables()
	if err != nil {
		return nil, nil, err
	}
	set, err := r.loadManifests(ctx)
	if err != nil {
		return nil, nil, err
	}

	auditor := audit.NewAuditor(r.client, r.store, r.log)
	report, err := auditor.Run(ctx, source, tables, set)
	if err != nil {
		return nil, nil, err
	}
	return r, report, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	r, report, err := runAuditReport(cmd)
	if err != nil {
		return err
	}

	if auditJSON {
		raw, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	}

	logFindings(r.log, "missing", report.Missing)
	logFindings(r.log, "stale", report.Stale)
	logFindings(r.log, "type_mismatch", report.TypeMismatch)
	logFindings(r.log, "orphaned", report.Orphaned)
	return nil
}

func runMarkStale(cmd *cobra.Command, args []string) error {
	r, report, err := runAuditReport(cmd)
	if err != nil {
		return err
	}

	if len(report.Stale) == 0 {
		r.log.Info("No stale records found")
		return nil
	}
	logFindings(r.log, "stale", report.Stale)

	if !markStaleDryRun && !confirmLifecycleUpdates(len(report.Stale)) {
		r.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	auditor := audit.NewAuditor(r.client, r.store, r.log)
	summary := auditor.MarkStale(cmd.Context(), report.Stale, markStaleDryRun)

	r.log.Info("Mark-stale summary",
		zap.Int("marked", summary.Marked),
		zap.Int("planned", summary.Planned),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("failed to mark %d records: %s", summary.Failed, strings.Join(summary.Errors, "; "))
	}
	return nil
}

// logFindings logs a finding list with a sample of at most five entries.
func logFindings(l *zap.Logger, heading string, findings []audit.Finding) {
	l.Info("Audit findings", zap.String("list", heading), zap.Int("count", len(findings)))

	maxShow := 5
	if len(findings) < maxShow {
		maxShow = len(findings)
	}
	for i := 0; i < maxShow; i++ {
		f := findings[i]
		l.Info("Finding",
			zap.String("list", heading),
			zap.String("name", f.Name),
			zap.String("type", f.Type),
			zap.String("detail", f.Detail),
		)
	}
	if len(findings) > maxShow {
		l.Info("Additional findings not shown", zap.String("list", heading), zap.Int("count", len(findings)-maxShow))
	}
}

// confirmLifecycleUpdates prompts the user for confirmation or uses --yes flag.
func confirmLifecycleUpdates(count int) bool {
	if markStaleConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  Type 'yes' to mark %d records as decommissioned: ", count)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
