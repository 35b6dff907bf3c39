package manifest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cmdb-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Publish uploads every manifest document in dir to the bucket under the
// prefix, creating the bucket on first use. Each document is decoded
// locally first, so a malformed file never lands in the bucket.
func Publish(ctx context.Context, client storage.Client, bucket, prefix, dir string, log *zap.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isManifestName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return 0, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		log.Info("Created manifest bucket", zap.String("bucket", bucket))
	}

	published := 0
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return published, fmt.Errorf("failed to read manifest %s: %w", name, err)
		}
		if _, err := decodeDocument(name, raw); err != nil {
			return published, err
		}

		object := prefix + name
		opts := minio.PutObjectOptions{ContentType: "application/yaml"}
		if _, err := client.PutObject(ctx, bucket, object, bytes.NewReader(raw), int64(len(raw)), opts); err != nil {
			return published, fmt.Errorf("failed to upload manifest %s: %w", name, err)
		}
		log.Info("Published manifest", zap.String("object", object))
		published++
	}
	return published, nil
}
