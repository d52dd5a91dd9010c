// Package kdtree is a static k-d tree answering k-nearest-neighbour queries
// under any distance that is bounded below by the per-axis difference
// (Euclidean, Manhattan and Chebyshev all qualify).
package kdtree

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-sod/sensord/pkg/pqueue"
)

var ErrEmptyQuery = errors.New("tree is empty or k is 0")

type Point interface {
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

type DistanceFn func(vec, vec1 []float64) (float64, error)

func New(distFn DistanceFn) *Tree {
	return &Tree{distFn: distFn}
}

type Tree struct {
	root   *node
	len    int
	distFn DistanceFn
}

// Build replaces the tree contents with a balanced tree over points. The
// slice is reordered in place.
func (t *Tree) Build(points ...Point) {
	t.len = len(points)
	t.root = build(points, 0)
}

func (t *Tree) Len() int {
	return t.len
}

func (t *Tree) Insert(p Point) {
	if t.root == nil {
		t.root = &node{Key: p}
	} else {
		t.root.insert(p, 0)
	}
	t.len++
}

func (t *Tree) Points() []Point {
	if t.root == nil {
		return []Point{}
	}
	return t.root.points()
}

// KNN returns up to k points closest to p in ascending distance.
func (t *Tree) KNN(p Point, k int) ([]Point, error) {
	if t.root == nil || k <= 0 {
		return []Point{}, ErrEmptyQuery
	}
	queue := pqueue.New(pqueue.WithCap(uint(k)))
	if err := t.search(p, t.root, 0, queue); err != nil {
		return []Point{}, err
	}
	found := queue.PopAll()
	points := make([]Point, len(found))
	for i := range found {
		points[i] = found[i].(Point)
	}
	return points, nil
}

func (t *Tree) search(p Point, n *node, dim int, queue *pqueue.Queue) error {
	if n == nil {
		return nil
	}
	distance, err := t.distFn(p.Points(), n.Key.Points())
	if err != nil {
		return fmt.Errorf("compute knn error: %w", err)
	}
	queue.Push(n.Key, distance)

	diff := p.Dim(dim) - n.Key.Dim(dim)
	near, far := n.Left, n.Right
	if diff >= 0 {
		near, far = n.Right, n.Left
	}
	next := (dim + 1) % p.Dimensions()
	if err := t.search(p, near, next, queue); err != nil {
		return err
	}
	if worst, full := queue.Worst(); !full || math.Abs(diff) < worst {
		return t.search(p, far, next, queue)
	}
	return nil
}

func build(points []Point, dim int) *node {
	switch len(points) {
	case 0:
		return nil
	case 1:
		return &node{Key: points[0]}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Dim(dim) < points[j].Dim(dim) })
	mid := len(points) / 2
	// equal keys belong to the right subtree, matching insert
	for mid > 0 && points[mid-1].Dim(dim) == points[mid].Dim(dim) {
		mid--
	}
	next := (dim + 1) % points[mid].Dimensions()
	return &node{
		Key:   points[mid],
		Left:  build(points[:mid], next),
		Right: build(points[mid+1:], next),
	}
}
