// Package knn classifies a reading by majority vote of its k nearest
// neighbours in a labeled training set. Features are standardised with the
// training set's mean and deviation so that no channel dominates the
// distance.
package knn

import (
	"context"
	"fmt"
	"math"

	"github.com/go-sod/sensord/internal/geom"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/synth"
	"github.com/go-sod/sensord/pkg/kdtree"
)

const MinKNum = 1

var _ predictor.Predictor = (*knn)(nil)

type Option func(*knn)

func WithK(k int) Option {
	return func(l *knn) {
		l.k = k
	}
}

func WithDistance(f geom.DistanceFn) Option {
	return func(l *knn) {
		l.distFunc = f
	}
}

type point struct {
	vec     []float64
	anomaly bool
}

func (p point) Dim(idx int) float64 { return p.vec[idx] }
func (p point) Dimensions() int     { return len(p.vec) }
func (p point) Points() []float64   { return p.vec }

type knn struct {
	k        int
	distFunc geom.DistanceFn
	mean     []float64
	std      []float64
	tree     *kdtree.Tree
}

func New(samples []synth.Sample, opts ...Option) (*knn, error) {
	l := &knn{k: 5, distFunc: geom.EuclideanDistance}
	for _, f := range opts {
		f(l)
	}
	if l.k < MinKNum {
		return nil, fmt.Errorf("k must be at least %d, got %d", MinKNum, l.k)
	}
	if len(samples) < l.k {
		return nil, fmt.Errorf("training set of %d samples is smaller than k=%d", len(samples), l.k)
	}

	l.mean, l.std = moments(samples)
	points := make([]kdtree.Point, len(samples))
	for i := range samples {
		points[i] = point{vec: l.scale(samples[i].Features()), anomaly: samples[i].IsAnomaly}
	}
	l.tree = kdtree.New(kdtree.DistanceFn(l.distFunc))
	l.tree.Build(points...)
	return l, nil
}

func (l *knn) Len() int {
	return l.tree.Len()
}

func (l *knn) Predict(ctx context.Context, r model.Reading) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	neighbours, err := l.tree.KNN(point{vec: l.scale(r.Features())}, l.k)
	if err != nil {
		return false, fmt.Errorf("unable to find neighbours of %v: %w", r, err)
	}

	votes := 0
	for _, n := range neighbours {
		if n.(point).anomaly {
			votes++
		}
	}
	return votes*2 > l.k, nil
}

func (l *knn) scale(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i := range vec {
		out[i] = (vec[i] - l.mean[i]) / l.std[i]
	}
	return out
}

func moments(samples []synth.Sample) (mean, std []float64) {
	dim := len(samples[0].Features())
	mean, std = make([]float64, dim), make([]float64, dim)
	for _, s := range samples {
		for i, v := range s.Features() {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(samples))
	}
	for _, s := range samples {
		for i, v := range s.Features() {
			std[i] += (v - mean[i]) * (v - mean[i])
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(samples)))
		if std[i] == 0 {
			std[i] = 1
		}
	}
	return mean, std
}
