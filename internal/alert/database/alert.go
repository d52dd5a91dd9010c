package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/sensord/internal/alert/model"
	"github.com/go-sod/sensord/internal/database"
)

const pendingBucket = "alerts:pending"

func New(db *database.DB) (*DB, error) {
	if err := db.EnsureBuckets(pendingBucket); err != nil {
		return nil, fmt.Errorf("unable create alert buckets: %w", err)
	}
	return &DB{sDB: db}, nil
}

// DB keeps alerts that were not delivered to every sink before shutdown.
type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, alerts ...model.Alert) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(pendingBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		for i := range alerts {
			bytes, err := json.Marshal(alerts[i])
			if err != nil {
				return fmt.Errorf("unable encode alert %s: %w", alerts[i].ID, err)
			}
			if err := b.Put([]byte(alerts[i].ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) Delete(_ context.Context, alerts ...model.Alert) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pendingBucket))
		if b == nil {
			return nil
		}
		for i := range alerts {
			if err := b.Delete([]byte(alerts[i].ID.String())); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

// FindAll returns the pending alerts, oldest first.
func (db *DB) FindAll(ctx context.Context) ([]model.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var alerts []model.Alert
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pendingBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var a model.Alert
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("alert %s unmarshal error: %w", k, err)
			}
			alerts = append(alerts, a)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.Before(alerts[j].CreatedAt) })
	return alerts, nil
}
