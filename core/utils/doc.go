// Package utils provides common utility functions for the cmdb-sync
// application. It includes helpers for loose-typed attribute conversion and
// hostname normalization shared across the sync pipeline.
package utils
