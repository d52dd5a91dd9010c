package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/reading/readingtest"
)

func newTestDB(t *testing.T, path string) *database.DB {
	t.Helper()
	db, err := database.NewFromEnv(context.Background(), &database.Config{FileName: path, OpenTimeout: time.Second})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestStore(t *testing.T) {
	readingtest.Run(t, func(t *testing.T) reading.Store {
		db := newTestDB(t, filepath.Join(t.TempDir(), "test.db"))
		t.Cleanup(func() { db.Close(context.Background()) })
		s, err := New(db)
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		return s
	})
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	db := newTestDB(t, path)
	s, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	r := model.NewLabeledReading(model.Reading{Temperature: 100, Humidity: 70, SoundVolume: 65}, true, time.Now())
	if err := s.Append(ctx, &r); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = newTestDB(t, path)
	defer db.Close(ctx)
	// opening twice must not reset the buckets
	s, err = New(db)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := s.Latest(ctx, 10, true)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 1 || got[0].ID != r.ID || got[0].Reading != r.Reading || !got[0].IsAnomaly {
		t.Errorf("row after reopen got: %+v, expected: %+v", got, r)
	}

	next := model.NewLabeledReading(model.Reading{}, false, r.Timestamp.Add(-time.Minute))
	if err := s.Append(ctx, &next); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if next.Seq <= r.Seq || !next.Timestamp.After(r.Timestamp) {
		t.Errorf("ordering key after reopen got: seq %d ts %v, previous seq %d ts %v", next.Seq, next.Timestamp, r.Seq, r.Timestamp)
	}
}

func TestCodec(t *testing.T) {
	t.Parallel()
	in := model.LabeledReading{
		Seq:       42,
		Reading:   model.Reading{Temperature: -3.25, Humidity: 99.99, SoundVolume: 0},
		IsAnomaly: true,
		Timestamp: time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC),
	}
	in.ID[0], in.ID[15] = 0x01, 0xff
	b, err := encodeRow(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeRow(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Seq != in.Seq || out.Reading != in.Reading || out.IsAnomaly != in.IsAnomaly || !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("codec got: %+v, expected: %+v", out, in)
	}
	if _, err := decodeRow(b[:5]); err == nil {
		t.Errorf("decoding a truncated row must fail")
	}
}
