package cmd

import (
	"fmt"

	"cmdb-sync/core/config"
	"cmdb-sync/core/logger"
	"cmdb-sync/core/storage"
	"cmdb-sync/feature/manifest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// manifestsCmd is the parent command for manifest operations.
var manifestsCmd = &cobra.Command{
	Use:   "manifests",
	Short: "Manage manifest documents",
}

var manifestsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Publish the local manifest directory to the storage bucket",
	Long: `Validate every manifest document in the configured directory and
upload it to the storage bucket, where scheduled runs load manifests from.`,
	RunE: runManifestsPush,
}

func init() {
	manifestsCmd.AddCommand(manifestsPushCmd)
	RootCmd.AddCommand(manifestsCmd)
}

// runManifestsPush boots without the record-store client; publishing only
// touches the bucket.
func runManifestsPush(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	published, err := manifest.Publish(cmd.Context(), client, cfg.Storage.Bucket, cfg.Manifest.Prefix, cfg.Manifest.Dir, l)
	if err != nil {
		return err
	}

	l.Info("Manifests published", zap.Int("count", published), zap.String("bucket", cfg.Storage.Bucket))
	return nil
}
