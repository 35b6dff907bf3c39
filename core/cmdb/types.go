package cmdb

import (
	"context"
	"time"

	"cmdb-sync/core/state"
)

// Server-class record types. Every type in this set represents a physical
// or virtual host, as opposed to a declared configuration item.
const (
	TypePhysicalServer = "physical-server"
	TypeVirtualServer  = "virtual-server"
	TypeCloudServer    = "cloud-server"
	TypeCloudDesktop   = "cloud-desktop"
	TypeHypervisor     = "hypervisor"
	TypeAppliance      = "appliance"
)

// ServerClassTypes lists the types the auditor treats as hosts when looking
// for stale records.
var ServerClassTypes = []string{
	TypePhysicalServer,
	TypeVirtualServer,
	TypeCloudServer,
	TypeCloudDesktop,
	TypeHypervisor,
	TypeAppliance,
}

// LifecycleDecommissioned is the lifecycle marker the mark-stale action
// writes. Records are never deleted, only marked.
const LifecycleDecommissioned = "decommissioned"

// Record is a remote record as returned by search and list.
type Record struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Lifecycle  string         `json:"lifecycle"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Attributes map[string]any `json:"attributes"`
}

// RelationshipPayload is one edge in a bulk relationship submission.
type RelationshipPayload struct {
	SourceID string `json:"source_id"`
	TypeID   string `json:"type_id"`
	TargetID string `json:"target_id"`
}

// JobState is the lifecycle of an asynchronous bulk job.
type JobState string

const (
	JobPending JobState = "pending"
	JobSuccess JobState = "success"
	JobFailed  JobState = "failed"
)

// JobItem is the per-edge verdict of a completed bulk job. Index refers to
// the position in the submitted batch.
type JobItem struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Job is the status of a bulk relationship job.
type Job struct {
	ID    string    `json:"id"`
	State JobState  `json:"state"`
	Items []JobItem `json:"items"`
}

// Client defines the operations the sync engine performs against the
// remote record store.
type Client interface {
	// Search returns the record with the exact name, or nil when absent.
	Search(ctx context.Context, kind state.Kind, name string) (*Record, error)
	// Create creates a record and returns its new remote ID.
	Create(ctx context.Context, kind state.Kind, payload map[string]any) (string, error)
	// Update applies the payload to an existing record.
	Update(ctx context.Context, kind state.Kind, id string, payload map[string]any) error
	// List returns all records of a kind, optionally filtered by type.
	// Pagination is handled internally.
	List(ctx context.Context, kind state.Kind, typeFilter string) ([]Record, error)
	// CreateRelationshipsBulk submits a batch of edges and returns the
	// handle of the asynchronous job processing them.
	CreateRelationshipsBulk(ctx context.Context, rels []RelationshipPayload) (string, error)
	// GetJob returns the current status of a bulk job.
	GetJob(ctx context.Context, jobID string) (*Job, error)
}
