package pqueue

import "testing"

func TestQueue_KeepsLowest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cap      int
		prior    []float64
		expected []float64
	}{
		{name: "bounded", cap: 3, prior: []float64{5, 1, 4, 2, 3, 0.5}, expected: []float64{0.5, 1, 2}},
		{name: "under_cap", cap: 5, prior: []float64{3, 1}, expected: []float64{1, 3}},
		{name: "unbounded", cap: -1, prior: []float64{3, 2, 1}, expected: []float64{1, 2, 3}},
		{name: "zero_cap", cap: 0, prior: []float64{1}, expected: []float64{}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			q := New()
			if test.cap >= 0 {
				q = New(WithCap(uint(test.cap)))
			}
			for _, p := range test.prior {
				q.Push(p, p)
			}
			got := q.PopAll()
			if len(got) != len(test.expected) {
				t.Fatalf("len got: %d, expected: %d", len(got), len(test.expected))
			}
			for i := range got {
				if got[i].(float64) != test.expected[i] {
					t.Errorf("item %d got: %v, expected: %v", i, got[i], test.expected[i])
				}
			}
			if q.Len() != 0 {
				t.Errorf("queue after PopAll got len: %d, expected: 0", q.Len())
			}
		})
	}
}

func TestQueue_Worst(t *testing.T) {
	t.Parallel()
	q := New(WithCap(2))
	if _, full := q.Worst(); full {
		t.Errorf("empty queue got full: %v, expected: false", full)
	}
	q.Push("a", 3)
	if worst, full := q.Worst(); full || worst != 3 {
		t.Errorf("got: %v %v, expected: 3 false", worst, full)
	}
	q.Push("b", 1)
	q.Push("c", 2)
	if worst, full := q.Worst(); !full || worst != 2 {
		t.Errorf("got: %v %v, expected: 2 true", worst, full)
	}
	if _, full := New().Worst(); full {
		t.Errorf("unbounded queue got full: %v, expected: false", full)
	}
}
