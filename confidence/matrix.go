package confidence

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColumns  = errors.New("table needs x, y, stations and std columns")
	ErrStations = errors.New("station count must be a whole number")
)

// StationCount converts a station cell to a count. Fractional, non-finite
// and out-of-range values are rejected.
func StationCount(v float64) (int, error) {
	if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v", ErrStations, v)
	}
	return int(v), nil
}

// PointsFromMatrix reads fixes from a table with columns x, y, stations, std.
// Extra columns are ignored.
func PointsFromMatrix(m mat.Matrix) ([]Point, error) {
	r, c := m.Dims()
	if r == 0 {
		return []Point{}, nil
	}
	if c < NumCols {
		return nil, fmt.Errorf("%w: got %d columns", ErrColumns, c)
	}
	pts := make([]Point, r)
	for i := 0; i < r; i++ {
		n, err := StationCount(m.At(i, ColStations))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		pts[i] = Point{
			X:        m.At(i, ColX),
			Y:        m.At(i, ColY),
			Stations: n,
			Std:      m.At(i, ColStd),
		}
	}
	return pts, nil
}

// ScoreMatrix scores a host table and returns the labels as a numeric slice,
// one per row.
func ScoreMatrix(m mat.Matrix, p Params) ([]float64, error) {
	pts, err := PointsFromMatrix(m)
	if err != nil {
		return nil, err
	}
	return Score(pts, p).Floats(), nil
}

// Matrix packs fixes back into the host table layout. No points gives an
// empty 0x0 table.
func Matrix(points []Point) *mat.Dense {
	if len(points) == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, 0, len(points)*NumCols)
	for _, pt := range points {
		data = append(data, pt.X, pt.Y, float64(pt.Stations), pt.Std)
	}
	return mat.NewDense(len(points), NumCols, data)
}
