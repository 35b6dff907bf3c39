package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cmdb-sync/core/storage"

	"github.com/goccy/go-yaml"
	"github.com/minio/minio-go/v7"
)

// Config holds configuration for manifest document loading.
type Config struct {
	// Dir is the local directory holding manifest YAML documents.
	Dir string `mapstructure:"dir" default:"manifests"`
	// UseStorage switches loading to the object-storage bucket.
	UseStorage bool `mapstructure:"use_storage" default:"false"`
	// Prefix is the object prefix scanned when UseStorage is set.
	Prefix string `mapstructure:"prefix" default:"manifests/"`
}

// Source loads manifest documents from wherever operators publish them.
type Source interface {
	Documents(ctx context.Context) ([]Document, error)
}

// DirSource loads documents from a local directory, sorted by file name so
// last-write-wins merging is deterministic.
type DirSource struct {
	Dir string
}

// Compile-time interface check.
var _ Source = (*DirSource)(nil)

// Documents reads every .yaml/.yml file in the directory.
func (s *DirSource) Documents(_ context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest directory %s: %w", s.Dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isManifestName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
		}
		doc, err := decodeDocument(name, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// BucketSource loads documents from the object-storage bucket operators
// publish manifests to.
type BucketSource struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Compile-time interface check.
var _ Source = (*BucketSource)(nil)

// Documents lists the prefix and decodes every YAML object, sorted by
// object name.
func (s *BucketSource) Documents(ctx context.Context) ([]Document, error) {
	opts := minio.ListObjectsOptions{Prefix: s.Prefix, Recursive: true}

	var names []string
	for info := range s.Client.ListObjects(ctx, s.Bucket, opts) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list manifests under %s: %w", s.Prefix, info.Err)
		}
		if isManifestName(info.Key) {
			names = append(names, info.Key)
		}
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		obj, err := s.Client.GetObject(ctx, s.Bucket, name, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch manifest %s: %w", name, err)
		}
		raw, err := io.ReadAll(obj)
		obj.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
		}
		doc, err := decodeDocument(name, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeDocument(name string, raw []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse manifest %s: %w", name, err)
	}
	doc.Name = name
	return doc, nil
}

func isManifestName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
