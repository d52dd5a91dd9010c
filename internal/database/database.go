package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sod/sensord/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type DB struct {
	DB *bolt.DB
}

// NewFromEnv opens the bolt file described by config. bolt holds an exclusive
// file lock, so a second instance on the same file waits up to OpenTimeout
// and then fails instead of corrupting the log.
func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection to %s", config.FileName)

	if dir := filepath.Dir(config.FileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := bolt.Open(config.FileName, 0600, &bolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("creating connection Db: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureBuckets creates the named buckets if they are absent.
func (db *DB) EnsureBuckets(names ...string) error {
	return db.DB.Update(func(tx *bolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing DB connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close Db connection: %w", err)
	}

	return nil
}
