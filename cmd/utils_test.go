package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"churn-backend/internal/config"
	"churn-backend/internal/core"
	"churn-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataDir() string {
	return filepath.Join("..", "internal", "core", "testdata", "models")
}

func TestSeedArtifacts(t *testing.T) {
	ctx := context.Background()
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	loc := core.ArtifactLocation{
		Bucket:     "churn",
		Prefix:     "v1",
		ScalerKey:  "scaler.json",
		ModelKey:   "model.json",
		ColumnsKey: "model_columns.json",
	}
	require.NoError(t, SeedArtifacts(ctx, provider, loc, testdataDir()))

	objs, err := provider.ListObjects(ctx, "churn", "v1/")
	require.NoError(t, err)
	assert.Len(t, objs, 3)

	catalog, err := core.LoadCatalog()
	require.NoError(t, err)
	predictor, err := core.LoadPredictor(ctx, provider, loc, catalog)
	require.NoError(t, err)
	assert.Equal(t, 40, predictor.Schema().Len())

	// A second seed leaves existing artifacts alone.
	require.NoError(t, provider.PutObject(ctx, "churn", "v1/model.json", strings.NewReader("changed")))
	require.NoError(t, SeedArtifacts(ctx, provider, loc, testdataDir()))
	data, err := provider.GetObject(ctx, "churn", "v1/model.json")
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))
}

func TestSeedArtifactsMissingDir(t *testing.T) {
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	err = SeedArtifacts(context.Background(), provider, core.ArtifactLocation{Bucket: "models"}, filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
}

func TestSeedArtifactsIncompleteDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scaler.json"), []byte(`{}`), 0o644))

	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	err = SeedArtifacts(context.Background(), provider, core.ArtifactLocation{
		Bucket:     "models",
		ScalerKey:  "scaler.json",
		ModelKey:   "model.json",
		ColumnsKey: "model_columns.json",
	}, dir)
	assert.ErrorContains(t, err, "model.json")
}

func TestNewArtifactProviderLocal(t *testing.T) {
	dir := t.TempDir()
	provider, err := NewArtifactProvider(&config.Config{ArtifactSource: config.ArtifactSourceLocal, ArtifactDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalProvider{}, provider)

	_, err = NewArtifactProvider(&config.Config{ArtifactSource: "ftp"})
	assert.Error(t, err)
}
