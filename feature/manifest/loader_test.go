package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDirSource_Documents tests loading and decoding of a manifest
// directory in name order.
func TestDirSource_Documents(t *testing.T) {
	dir := t.TempDir()

	first := `
business_services:
  - name: Payroll
    owner: finance
    impact: high
relationships:
  - source: Payroll
    kind: depends on
    target: ordersdb
`
	second := `
databases:
  - name: ordersdb
    engine: mysql
    size_gb: "120"
    environment: prod
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-data.yaml"), []byte(second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-apps.yaml"), []byte(first), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a manifest"), 0o644))

	docs, err := (&DirSource{Dir: dir}).Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Name order, so merging is deterministic
	assert.Equal(t, "10-apps.yaml", docs[0].Name)
	assert.Equal(t, "20-data.yaml", docs[1].Name)

	require.Len(t, docs[0].BusinessServices, 1)
	assert.Equal(t, "finance", docs[0].BusinessServices[0].Owner)
	require.Len(t, docs[0].Relationships, 1)
	assert.Equal(t, "depends on", docs[0].Relationships[0].Kind)

	require.Len(t, docs[1].Databases, 1)
	assert.Equal(t, "120", docs[1].Databases[0].SizeGB)
}

// TestDirSource_BadDocument tests that malformed YAML surfaces with the
// document name.
func TestDirSource_BadDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":\n\t- nope"), 0o644))

	_, err := (&DirSource{Dir: dir}).Documents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
