package audit

import (
	"time"

	"github.com/google/uuid"
)

// Finding is one flagged record in an audit report. LastModified carries
// the remote record's last update time on stale findings, so operators can
// judge how long the record has been unaccounted for.
type Finding struct {
	Name         string `json:"name"`
	ID           string `json:"id,omitempty"`
	Type         string `json:"type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// Summary carries the run counts without the finding lists.
type Summary struct {
	FleetHosts   int `json:"fleet_hosts"`
	RemoteHosts  int `json:"remote_hosts"`
	DeclaredCIs  int `json:"declared_cis"`
	Missing      int `json:"missing"`
	Stale        int `json:"stale"`
	TypeMismatch int `json:"type_mismatch"`
	Orphaned     int `json:"orphaned"`
	Excluded     int `json:"excluded"`
}

// Report is the outcome of one audit run. The finding lists are disjoint;
// a record appears under exactly one heading.
type Report struct {
	RunID        uuid.UUID `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Elapsed      string    `json:"elapsed"`
	Summary      Summary   `json:"summary"`
	Missing      []Finding `json:"missing"`
	Stale        []Finding `json:"stale"`
	TypeMismatch []Finding `json:"type_mismatch"`
	Orphaned     []Finding `json:"orphaned"`
	Excluded     []Finding `json:"excluded"`
}
