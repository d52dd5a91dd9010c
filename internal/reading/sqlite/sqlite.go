// Package sqlite stores the reading log in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT    NOT NULL UNIQUE,
	temperature  REAL    NOT NULL,
	humidity     REAL    NOT NULL,
	sound_volume REAL    NOT NULL,
	timestamp    INTEGER NOT NULL UNIQUE,
	is_anomaly   BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_readings_anomaly ON readings(is_anomaly, seq DESC);
`

var _ reading.Store = (*Store)(nil)

// Store implements reading.Store using SQLite.
type Store struct {
	db *sql.DB

	// writers are serialized in process; WAL lets readers proceed meanwhile
	mtx     sync.Mutex
	entropy io.Reader
}

// Open opens or creates the database at cfg.Path and creates the schema if it
// is missing.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening sqlite store %s", cfg.Path)

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// immediate runs fn on one connection inside BEGIN IMMEDIATE, so the write
// lock is taken up front and busy_timeout applies to writers from other
// processes.
func (s *Store) immediate(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(conn); err != nil {
		// the connection goes back to the pool, it must not stay in a transaction
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.immediate(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, schema)
		return err
	})
}

func (s *Store) Append(ctx context.Context, r *model.LabeledReading) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *r
	err := s.immediate(ctx, func(conn *sql.Conn) error {
		var last sql.NullInt64
		if err := conn.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM readings`).Scan(&last); err != nil {
			return fmt.Errorf("read last timestamp: %w", err)
		}
		var lastAt time.Time
		if last.Valid {
			lastAt = time.Unix(0, last.Int64).UTC()
		}

		stored.Timestamp = reading.NextTimestamp(lastAt, r.Timestamp)
		id, err := ulid.New(ulid.Timestamp(stored.Timestamp), s.entropy)
		if err != nil {
			return fmt.Errorf("new row id: %w", err)
		}
		stored.ID = id

		res, err := conn.ExecContext(ctx,
			`INSERT INTO readings (id, temperature, humidity, sound_volume, timestamp, is_anomaly) VALUES (?, ?, ?, ?, ?, ?)`,
			stored.ID.String(), stored.Temperature, stored.Humidity, stored.SoundVolume, stored.Timestamp.UnixNano(), stored.IsAnomaly,
		)
		if err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
		stored.Seq = uint64(seq)
		return nil
	})
	if err != nil {
		return err
	}

	*r = stored
	return nil
}

func (s *Store) Latest(ctx context.Context, limit int, anomaliesOnly bool) ([]model.LabeledReading, error) {
	list := []model.LabeledReading{}
	if limit <= 0 {
		return list, ctx.Err()
	}

	query := `SELECT seq, id, temperature, humidity, sound_volume, timestamp, is_anomaly FROM readings`
	if anomaliesOnly {
		query += ` WHERE is_anomaly = 1`
	}
	query += ` ORDER BY seq DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r  model.LabeledReading
			id string
			ts int64
		)
		if err := rows.Scan(&r.Seq, &id, &r.Temperature, &r.Humidity, &r.SoundVolume, &ts, &r.IsAnomaly); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		if r.ID, err = ulid.ParseStrict(id); err != nil {
			return nil, fmt.Errorf("parse id %q: %w", id, err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest: %w", err)
	}
	return list, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

func (s *Store) Close(ctx context.Context) error {
	logging.FromContext(ctx).Infof("closing sqlite store")
	return s.db.Close()
}
