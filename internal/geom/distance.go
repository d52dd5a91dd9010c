// Package geom holds distance functions between feature vectors.
package geom

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

type DistanceFn func(vec, vec1 []float64) (float64, error)

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

func DistanceFuncFor(d DistanceFuncType) (DistanceFn, error) {
	switch d {
	case DistanceFuncTypeChebyshev:
		return ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", d)
	}
}

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := range vec {
		diff := vec[i] - vec1[i]
		d += diff * diff
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := range vec1 {
		if abs := math.Abs(vec[i] - vec1[i]); distance < abs {
			distance = abs
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := range vec {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}
