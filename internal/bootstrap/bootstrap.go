// Package bootstrap wires configuration into a ready RequestRouter.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/resphone/resphone/internal/auth"
	"github.com/resphone/resphone/internal/awsutil"
	"github.com/resphone/resphone/internal/blob"
	"github.com/resphone/resphone/internal/cache"
	"github.com/resphone/resphone/internal/config"
	"github.com/resphone/resphone/internal/ddb"
	"github.com/resphone/resphone/internal/handler"
	"github.com/resphone/resphone/internal/s3io"
	"github.com/resphone/resphone/internal/store"
)

// NewBlobStore builds the configured blob backend.
func NewBlobStore(ctx context.Context, env config.Env) (blob.Store, error) {
	switch env.Backend {
	case config.BackendS3:
		cfg, err := awsutil.Load(ctx, env.Region)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return &s3io.BlobStore{S3: awsutil.NewS3(cfg, env.Endpoint), Bucket: env.Bucket}, nil
	case config.BackendDynamoDB:
		cfg, err := awsutil.Load(ctx, env.Region)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return &ddb.Repo{DB: awsutil.NewDynamoDB(cfg, env.Endpoint), Table: env.Table}, nil
	case config.BackendRedis:
		c, err := cache.Connect(env.RedisURL)
		if err != nil {
			return nil, err
		}
		return &cache.BlobStore{KV: c, Prefix: "resphone:"}, nil
	case config.BackendMemory:
		m := blob.NewMemory()
		if env.MemorySeedFile != "" {
			if err := seed(ctx, m, env.Key, env.MemorySeedFile); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", env.Backend)
	}
}

// NewApp builds the RequestRouter for env on top of b.
func NewApp(env config.Env, b blob.Store, log *slog.Logger) (*handler.App, error) {
	loc, err := env.Location()
	if err != nil {
		return nil, fmt.Errorf("audit timezone %q: %w", env.TimeZone, err)
	}
	if log == nil {
		log = slog.Default()
	}
	if env.Secret == "" {
		log.Warn("no shared secret configured; authenticated routes will fail", "operation", "bootstrap")
	}
	cs := store.New(b, env.Key, loc)
	v := auth.NewValidator(env.Secret, env.AuthWindow)
	return handler.New(v, cs, env.ClientIPHeader, log), nil
}

// seed loads the initial document for the memory backend.
func seed(ctx context.Context, m *blob.Memory, key, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	return m.Put(ctx, key, body)
}
