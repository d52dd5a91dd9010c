package model

import (
	"fmt"
	"time"
)

// ColumnDatestamp is the name of the ordering key column on the wire.
const ColumnDatestamp = "datestamp"

// Columns is the column order of a Table.
var Columns = []string{FieldTemperature, FieldHumidity, FieldSoundVolume, ColumnDatestamp, "is_anomaly"}

// Table is the row-oriented representation of a history query.
type Table struct {
	Data    [][]interface{} `json:"data"`
	Columns []string        `json:"columns"`
}

// NewTable lays out rows in Columns order, preserving their order.
func NewTable(rows []LabeledReading) Table {
	data := make([][]interface{}, 0, len(rows))
	for i := range rows {
		data = append(data, []interface{}{
			rows[i].Temperature,
			rows[i].Humidity,
			rows[i].SoundVolume,
			rows[i].Timestamp.UTC().Format(time.RFC3339Nano),
			rows[i].IsAnomaly,
		})
	}
	return Table{Data: data, Columns: Columns}
}

// Rows decodes a table produced by NewTable. Columns are matched by name, so
// their order on the wire does not matter. ID and Seq are not part of the
// table and are left zero.
func (t Table) Rows() ([]LabeledReading, error) {
	idx := map[string]int{}
	for i, c := range t.Columns {
		idx[c] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("table: missing column %q", c)
		}
	}

	rows := make([]LabeledReading, 0, len(t.Data))
	for n, cells := range t.Data {
		if len(cells) != len(t.Columns) {
			return nil, fmt.Errorf("table: row %d has %d cells, expected %d", n, len(cells), len(t.Columns))
		}
		var (
			row LabeledReading
			ok  bool
		)
		if row.Temperature, ok = cells[idx[FieldTemperature]].(float64); !ok {
			return nil, fmt.Errorf("table: row %d: %s is not a number", n, FieldTemperature)
		}
		if row.Humidity, ok = cells[idx[FieldHumidity]].(float64); !ok {
			return nil, fmt.Errorf("table: row %d: %s is not a number", n, FieldHumidity)
		}
		if row.SoundVolume, ok = cells[idx[FieldSoundVolume]].(float64); !ok {
			return nil, fmt.Errorf("table: row %d: %s is not a number", n, FieldSoundVolume)
		}
		if row.IsAnomaly, ok = cells[idx["is_anomaly"]].(bool); !ok {
			return nil, fmt.Errorf("table: row %d: is_anomaly is not a boolean", n)
		}
		ts, ok := cells[idx[ColumnDatestamp]].(string)
		if !ok {
			return nil, fmt.Errorf("table: row %d: %s is not a string", n, ColumnDatestamp)
		}
		at, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("table: row %d: %w", n, err)
		}
		row.Timestamp = at
		rows = append(rows, row)
	}
	return rows, nil
}
