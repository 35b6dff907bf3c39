// Package audit reconciles the fleet inventory, the declared manifests and
// the remote record store without changing any of them.
//
// A run produces a report with four disjoint finding lists: hosts present
// in the fleet but absent remotely, remote server records no longer backed
// by a fleet host, records whose recorded type disagrees with the current
// classification, and declared CIs with no synchronized relationship.
// Type mismatches are report-only; reclassification is an operator
// decision. The only write path is the explicit mark-stale action, which
// flips lifecycles and never deletes.
package audit
