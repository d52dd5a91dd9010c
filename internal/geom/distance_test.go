package geom

import (
	"errors"
	"math"
	"testing"
)

func TestDistances(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		fn       DistanceFuncType
		p        []float64
		p1       []float64
		expected float64
		err      error
	}{
		{name: "euclidean", fn: DistanceFuncTypeEuclidean, p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1.2806248474865698},
		{name: "euclidean_3d", fn: DistanceFuncTypeEuclidean, p: []float64{0, 0, 0}, p1: []float64{2, 3, 6}, expected: 7},
		{name: "chebyshev", fn: DistanceFuncTypeChebyshev, p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 5},
		{name: "manhattan", fn: DistanceFuncTypeManhattan, p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1.8},
		{name: "euclidean_err", fn: DistanceFuncTypeEuclidean, p: []float64{5, 2.0}, p1: []float64{3}, err: ErrDimNotEqual},
		{name: "chebyshev_err", fn: DistanceFuncTypeChebyshev, p: []float64{2.0}, p1: []float64{3, 4.0}, err: ErrDimNotEqual},
		{name: "manhattan_err", fn: DistanceFuncTypeManhattan, p: nil, p1: []float64{1}, err: ErrDimNotEqual},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			fn, err := DistanceFuncFor(test.fn)
			if err != nil {
				t.Fatalf("distance func for %s: %v", test.fn, err)
			}
			got, err := fn(test.p, test.p1)
			if !errors.Is(err, test.err) {
				t.Fatalf("distance error got: %v, expected: %v", err, test.err)
			}
			if math.Abs(got-test.expected) > 1e-9 {
				t.Errorf("the distance obtained does not correspond to the expected distance, got %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestDistanceFuncFor_Unknown(t *testing.T) {
	t.Parallel()
	if _, err := DistanceFuncFor("COSINE"); err == nil {
		t.Errorf("unknown distance function must return an error")
	}
}
