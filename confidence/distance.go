package confidence

import "gonum.org/v1/gonum/floats"

// Distance returns the planar distance between points i and ref, or
// DisqualifyingDistance when ref is undefined.
func Distance(points []Point, i int, ref Index) float64 {
	j, ok := ref.Get()
	if !ok {
		return DisqualifyingDistance
	}
	a, b := points[i], points[j]
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

func connected(points []Point, i int, ref Index, dist float64) bool {
	return Distance(points, i, ref) < dist
}
