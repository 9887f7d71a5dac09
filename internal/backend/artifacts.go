package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"expensetracker/internal/artifact"
	"expensetracker/internal/config"
)

const (
	LocalArtifacts = "local"
	GCSArtifacts   = "gcs"
)

// OpenArtifacts opens the sink named by cfg.ArtifactBackend.
func (f *Factory) OpenArtifacts(ctx context.Context, cfg *config.Config) (artifact.Sink, CleanupFunc, error) {
	switch cfg.ArtifactBackend {
	case LocalArtifacts:
		sink, err := artifact.NewLocalSink(cfg.ExportDir)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize local artifact sink: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized local artifact sink", "dir", cfg.ExportDir)
		return sink, func() error { return nil }, nil
	case GCSArtifacts:
		opts, err := gcsOptions(cfg)
		if err != nil {
			return nil, nil, err
		}
		sink, err := artifact.NewGCSSink(ctx, cfg.GCSBucket, cfg.GCSPrefix, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize GCS artifact sink: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized GCS artifact sink",
			"bucket", cfg.GCSBucket,
			"prefix", cfg.GCSPrefix,
			"explicit_credentials", len(opts) > 0)
		return sink, sink.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported artifact backend: %s", cfg.ArtifactBackend)
	}
}

// gcsOptions prefers inline service account JSON, then a credentials file.
// With neither, the client falls back to Application Default Credentials.
func gcsOptions(cfg *config.Config) ([]option.ClientOption, error) {
	credentialsJSON := []byte(cfg.GoogleCredentialsJSON)
	if len(credentialsJSON) == 0 && cfg.GoogleCredentialsFile != "" {
		b, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read Google credentials file: %w", err)
		}
		credentialsJSON = b
	}
	if len(credentialsJSON) == 0 {
		return nil, nil
	}
	if credentialsJSON[0] != '{' {
		return nil, errors.New("Google credentials must be a service account JSON document")
	}
	return []option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcs.ScopeReadWrite),
	}, nil
}
