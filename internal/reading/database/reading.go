package database

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
)

const (
	readingsBucket  = "readings"
	anomaliesBucket = "readings:anomalies"
)

var _ reading.Store = (*DB)(nil)

// New returns the bolt backed log. Rows live in the readings bucket keyed by
// the big endian sequence number, so cursor order is insertion order. The
// anomalies bucket holds the sequence numbers of anomalous rows.
func New(db *database.DB) (*DB, error) {
	if err := db.EnsureBuckets(readingsBucket, anomaliesBucket); err != nil {
		return nil, fmt.Errorf("unable init reading buckets: %w", err)
	}
	return &DB{
		sDB:     db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

type DB struct {
	sDB *database.DB
	// only used inside update transactions, which bolt runs one at a time
	entropy io.Reader
}

func (db *DB) Append(ctx context.Context, r *model.LabeledReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stored model.LabeledReading
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(readingsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		a, err := tx.CreateBucketIfNotExists([]byte(anomaliesBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		var last time.Time
		if k, v := b.Cursor().Last(); k != nil {
			prev, err := decodeRow(v)
			if err != nil {
				return fmt.Errorf("read last row: %w", err)
			}
			last = prev.Timestamp
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		stored = *r
		stored.Seq = seq
		stored.Timestamp = reading.NextTimestamp(last, r.Timestamp)
		id, err := ulid.New(ulid.Timestamp(stored.Timestamp), db.entropy)
		if err != nil {
			return fmt.Errorf("new row id: %w", err)
		}
		stored.ID = id

		value, err := encodeRow(stored)
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), value); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		if stored.IsAnomaly {
			if err := a.Put(itob(seq), []byte{0x0}); err != nil {
				return fmt.Errorf("put to anomalies bucket error: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	*r = stored
	return nil
}

func (db *DB) Latest(ctx context.Context, limit int, anomaliesOnly bool) ([]model.LabeledReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []model.LabeledReading{}
	if limit <= 0 {
		return list, nil
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(readingsBucket))
		if b == nil {
			return nil
		}
		if !anomaliesOnly {
			c := b.Cursor()
			for k, v := c.Last(); k != nil && len(list) < limit; k, v = c.Prev() {
				r, err := decodeRow(v)
				if err != nil {
					return err
				}
				list = append(list, r)
			}
			return nil
		}

		a := tx.Bucket([]byte(anomaliesBucket))
		if a == nil {
			return nil
		}
		c := a.Cursor()
		for k, _ := c.Last(); k != nil && len(list) < limit; k, _ = c.Prev() {
			v := b.Get(k)
			if v == nil {
				return fmt.Errorf("anomaly index points to missing row %x", k)
			}
			r, err := decodeRow(v)
			if err != nil {
				return err
			}
			list = append(list, r)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(readingsBucket))
		if b == nil {
			return nil
		}
		length = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %w", err)
	}
	return length, nil
}
