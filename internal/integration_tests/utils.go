package integrationtests

import (
	"context"
	"path/filepath"
	"testing"

	"churn-backend/internal/core"
	"churn-backend/internal/storage"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "minioadmin"
	minioPassword = "minioadmin"

	artifactBucket = "churn-models"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupS3Provider(t *testing.T, ctx context.Context) *storage.S3Provider {
	t.Helper()

	endpoint := setupMinioContainer(t, ctx)

	provider, err := storage.NewS3Provider(storage.S3ClientConfig{
		Endpoint:        endpoint,
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	return provider
}

func artifactLocation(prefix string) core.ArtifactLocation {
	return core.ArtifactLocation{
		Bucket:     artifactBucket,
		Prefix:     prefix,
		ScalerKey:  "scaler.json",
		ModelKey:   "model.json",
		ColumnsKey: "model_columns.json",
	}
}

func fixtureDir() string {
	return filepath.Join("..", "core", "testdata", "models")
}
