package database

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"github.com/oklog/ulid/v2"

	"github.com/go-sod/sensord/internal/byteutil"
	"github.com/go-sod/sensord/internal/reading/model"
)

// row is the on-disk layout of a labeled reading.
type row struct {
	ID          [16]byte
	Seq         uint64
	Timestamp   int64
	Temperature float64
	Humidity    float64
	SoundVolume float64
	IsAnomaly   bool
}

func encodeRow(r model.LabeledReading) ([]byte, error) {
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)

	v := row{
		ID:          r.ID,
		Seq:         r.Seq,
		Timestamp:   r.Timestamp.UnixNano(),
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		SoundVolume: r.SoundVolume,
		IsAnomaly:   r.IsAnomaly,
	}
	if _, err := xdr.Marshal(buf, &v); err != nil {
		return nil, fmt.Errorf("xdr marshal row %d: %w", r.Seq, err)
	}

	// bolt keeps a reference to the value until the transaction commits
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodeRow(b []byte) (model.LabeledReading, error) {
	var v row
	if _, err := xdr.Unmarshal(bytes.NewReader(b), &v); err != nil {
		return model.LabeledReading{}, fmt.Errorf("xdr unmarshal row: %w", err)
	}
	return model.LabeledReading{
		ID:  ulid.ULID(v.ID),
		Seq: v.Seq,
		Reading: model.Reading{
			Temperature: v.Temperature,
			Humidity:    v.Humidity,
			SoundVolume: v.SoundVolume,
		},
		IsAnomaly: v.IsAnomaly,
		Timestamp: time.Unix(0, v.Timestamp).UTC(),
	}, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
