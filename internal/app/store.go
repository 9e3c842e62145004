package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/config"
	"mehnda-chinji/internal/repository"
	"mehnda-chinji/internal/repository/memory"
	"mehnda-chinji/internal/repository/redisstore"
	"mehnda-chinji/internal/repository/sqlite"
	"mehnda-chinji/internal/storage"
)

// OpenStore opens the device key-value store selected by store.driver. The
// returned function releases it.
func OpenStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (repository.KVStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, the session will not survive a restart")
		return memory.NewKVStore(), noop, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Infof("using redis store at %s (db %d)", cfg.Redis.Addr, cfg.Redis.DB)
		return redisstore.NewKVRepository(rdb, cfg.Redis.Prefix), rdb.Close, nil

	case config.StoreS3:
		store, err := openS3Store(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using s3 store in bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return store, noop, nil

	default:
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		repo := sqlite.NewKVRepository(db)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init kv store: %w", err)
		}
		logger.Infof("using sqlite store at %s", cfg.Store.Path)
		return repo, db.Close, nil
	}
}

func openS3Store(ctx context.Context, cfg config.Config) (*storage.S3KV, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	return storage.NewS3KV(client, storage.Options{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
}
