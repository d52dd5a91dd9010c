package reading

import (
	"testing"
	"time"
)

func TestNextTimestamp(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		last     time.Time
		now      time.Time
		expected time.Time
	}{
		{name: "empty_log", now: base, expected: base},
		{name: "clock_advanced", last: base, now: base.Add(time.Second), expected: base.Add(time.Second)},
		{name: "same_instant", last: base, now: base, expected: base.Add(time.Nanosecond)},
		{name: "clock_went_back", last: base, now: base.Add(-time.Hour), expected: base.Add(time.Nanosecond)},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := NextTimestamp(test.last, test.now); !got.Equal(test.expected) {
				t.Errorf("next timestamp got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
