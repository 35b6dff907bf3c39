package cmd

import (
	"context"
	"fmt"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/config"
	"cmdb-sync/core/database"
	"cmdb-sync/core/logger"
	"cmdb-sync/core/state"
	"cmdb-sync/core/storage"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/manifest"

	"go.uber.org/zap"
)

// runtime bundles the pieces every command boots: configuration, logger,
// the record-store client and the local correspondence store. Anything
// wrong here is a configuration error and fails the run before the first
// remote call.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	client cmdb.Client
	store  *state.Store
}

func newRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := cmdb.NewHTTPClient(cfg.CMDB)
	if err != nil {
		return nil, fmt.Errorf("invalid record-store configuration: %w", err)
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	return &runtime{cfg: cfg, log: l, client: client, store: store}, nil
}

// fleetSource connects the inventory database and verifies its schema.
func (r *runtime) fleetSource() (fleet.Source, error) {
	db, err := database.Connect(r.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to inventory database: %w", err)
	}
	source := fleet.NewDBSource(db)
	if err := source.Verify(); err != nil {
		return nil, err
	}
	return source, nil
}

// tables compiles the configured classification tables.
func (r *runtime) tables() (*classify.Tables, error) {
	tables, err := classify.NewTables(r.cfg.Classify)
	if err != nil {
		return nil, fmt.Errorf("invalid classification tables: %w", err)
	}
	return tables, nil
}

// manifestSource picks the configured manifest location: the local
// directory by default, the storage bucket when enabled.
func (r *runtime) manifestSource() (manifest.Source, error) {
	if r.cfg.Manifest.UseStorage {
		client, err := storage.NewClient(r.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		return &manifest.BucketSource{
			Client: client,
			Bucket: r.cfg.Storage.Bucket,
			Prefix: r.cfg.Manifest.Prefix,
		}, nil
	}
	return &manifest.DirSource{Dir: r.cfg.Manifest.Dir}, nil
}

// loadManifests loads and aggregates every manifest document.
func (r *runtime) loadManifests(ctx context.Context) (*manifest.Set, error) {
	source, err := r.manifestSource()
	if err != nil {
		return nil, err
	}
	docs, err := source.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return manifest.Aggregate(docs, r.log), nil
}
