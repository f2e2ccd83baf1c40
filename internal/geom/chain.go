package geom

// ChainOrder orders points into a greedy nearest-neighbour chain and
// returns the visiting order as indices into pts. The chain starts at the
// point farthest from the centroid, which is a cheap way of finding an
// endpoint of an elongated cluster. Empty input returns nil.
func ChainOrder(pts []Point) []int {
	n := len(pts)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}

	c := Centroid(pts)
	start := 0
	best := -1.0
	for i, p := range pts {
		if d := DistanceSq(p, c); d > best {
			best = d
			start = i
		}
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)
	cur := start
	visited[cur] = true
	order = append(order, cur)

	for len(order) < n {
		next := -1
		bestD := 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := DistanceSq(pts[cur], pts[i])
			if next == -1 || d < bestD {
				next = i
				bestD = d
			}
		}
		visited[next] = true
		order = append(order, next)
		cur = next
	}
	return order
}

// ChainLength returns the total polyline length of pts visited in order.
func ChainLength(pts []Point, order []int) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		total += Distance(pts[order[i-1]], pts[order[i]])
	}
	return total
}
