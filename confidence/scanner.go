package confidence

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Vector holds one label per input point.
type Vector []Level

// Direction of a scan over the trajectory.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Score labels every point of a trajectory. Each point keeps the higher of
// the labels it receives scanning forward and scanning backward.
func Score(points []Point, p Params) Vector {
	out := make(Vector, len(points))
	scan(points, Forward, p, out)
	scan(points, Backward, p, out)
	return out
}

// ScorePass runs a single directional pass.
func ScorePass(points []Point, dir Direction, p Params) Vector {
	out := make(Vector, len(points))
	scan(points, dir, p, out)
	return out
}

// ScoreConcurrent computes both passes in parallel and merges them. The
// result is identical to Score.
func ScoreConcurrent(ctx context.Context, points []Point, p Params) (Vector, error) {
	var fwd, bwd Vector
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fwd = ScorePass(points, Forward, p)
		return ctx.Err()
	})
	g.Go(func() error {
		bwd = ScorePass(points, Backward, p)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	Merge(fwd, bwd)
	return fwd, nil
}

// Merge raises every dst[i] to src[i] where src is higher.
func Merge(dst, src Vector) {
	for i := range dst {
		if i < len(src) && src[i] > dst[i] {
			dst[i] = src[i]
		}
	}
}

func scan(points []Point, dir Direction, p Params, out Vector) {
	st := NewPassState()
	step := func(i int) {
		lvl := Classify(points, i, st, p)
		if lvl > out[i] {
			out[i] = lvl
		}
		st = st.Advance(i, lvl)
	}
	n := len(points)
	if dir == Backward {
		for i := n - 1; i >= 0; i-- {
			step(i)
		}
		return
	}
	for i := 0; i < n; i++ {
		step(i)
	}
}

// Counts returns the number of points at each level.
func (v Vector) Counts() [3]int {
	var c [3]int
	for _, l := range v {
		if l >= Unreliable && l <= High {
			c[l]++
		}
	}
	return c
}

// Floats converts the labels to the numeric form expected by table hosts.
func (v Vector) Floats() []float64 {
	out := make([]float64, len(v))
	for i, l := range v {
		out[i] = float64(l)
	}
	return out
}
