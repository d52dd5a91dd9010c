package kdtree

type node struct {
	Key   Point
	Left  *node
	Right *node
}

func (n *node) points() []Point {
	var points []Point
	if n.Left != nil {
		points = n.Left.points()
	}
	points = append(points, n.Key)
	if n.Right != nil {
		points = append(points, n.Right.points()...)
	}
	return points
}

func (n *node) insert(p Point, dim int) {
	next := (dim + 1) % n.Key.Dimensions()
	if p.Dim(dim) < n.Key.Dim(dim) {
		if n.Left == nil {
			n.Left = &node{Key: p}
			return
		}
		n.Left.insert(p, next)
		return
	}
	if n.Right == nil {
		n.Right = &node{Key: p}
		return
	}
	n.Right.insert(p, next)
}
