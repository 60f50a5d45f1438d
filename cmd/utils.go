package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"churn-backend/internal/config"
	"churn-backend/internal/core"
	"churn-backend/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func NewArtifactProvider(cfg *config.Config) (storage.Provider, error) {
	switch cfg.ArtifactSource {
	case config.ArtifactSourceS3:
		provider, err := storage.NewS3Provider(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating s3 artifact provider: %w", err)
		}
		return provider, nil
	case config.ArtifactSourceLocal:
		provider, err := storage.NewLocalProvider(cfg.ArtifactDir)
		if err != nil {
			return nil, fmt.Errorf("error creating local artifact provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown artifact source '%s'", cfg.ArtifactSource)
	}
}

func ArtifactLocation(cfg *config.Config) core.ArtifactLocation {
	return core.ArtifactLocation{
		Bucket:     cfg.ArtifactBucket,
		Prefix:     cfg.ArtifactPrefix,
		ScalerKey:  cfg.ScalerKey,
		ModelKey:   cfg.ModelKey,
		ColumnsKey: cfg.ColumnsKey,
	}
}

// SeedArtifacts uploads the three artifacts from localDir into the store when
// nothing exists under the location's prefix yet.
func SeedArtifacts(ctx context.Context, provider storage.Provider, loc core.ArtifactLocation, localDir string) error {
	info, err := os.Stat(localDir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("local artifact dir does not exist, skipping upload", "dir", localDir)
			return nil
		}
		return fmt.Errorf("failed to stat local artifact dir %s: %w", localDir, err)
	}
	if !info.IsDir() {
		slog.Warn("local artifact path exists but is not a directory, skipping upload", "path", localDir)
		return nil
	}

	if err := provider.CreateBucket(ctx, loc.Bucket); err != nil {
		return fmt.Errorf("error creating artifact bucket %s: %w", loc.Bucket, err)
	}

	prefix := loc.Prefix
	if prefix != "" {
		prefix += "/"
	}
	objs, err := provider.ListObjects(ctx, loc.Bucket, prefix)
	if err != nil {
		slog.Error("failed to list existing artifacts", "bucket", loc.Bucket, "prefix", loc.Prefix, "error", err)
	} else if len(objs) > 0 {
		slog.Info("artifacts already present, skipping upload", "bucket", loc.Bucket, "prefix", loc.Prefix, "objects", len(objs))
		return nil
	}

	for _, name := range []string{loc.ScalerKey, loc.ModelKey, loc.ColumnsKey} {
		data, err := os.ReadFile(filepath.Join(localDir, name))
		if err != nil {
			return fmt.Errorf("error reading artifact %s: %w", name, err)
		}
		if err := provider.PutObject(ctx, loc.Bucket, loc.Key(name), bytes.NewReader(data)); err != nil {
			return fmt.Errorf("error uploading artifact %s: %w", name, err)
		}
	}

	slog.Info("uploaded artifacts", "bucket", loc.Bucket, "prefix", loc.Prefix, "dir", localDir)
	return nil
}
