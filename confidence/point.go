package confidence

import (
	"errors"
	"fmt"
	"math"
)

// Point is one localization fix. Its identity is its position in the slice.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Stations int     `json:"stations"`
	Std      float64 `json:"std"`
}

// Level is the confidence tier assigned to a fix.
type Level int

const (
	Unreliable Level = iota
	Moderate
	High
)

func (l Level) String() string {
	switch l {
	case Unreliable:
		return "unreliable"
	case Moderate:
		return "moderate"
	case High:
		return "high"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts either the numeric tier or its name.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "0", "unreliable":
		return Unreliable, nil
	case "1", "moderate":
		return Moderate, nil
	case "2", "high":
		return High, nil
	}
	return Unreliable, fmt.Errorf("invalid confidence level %q", s)
}

// Index is an optional row index. The zero value is undefined.
type Index struct {
	i  int
	ok bool
}

// NoIndex is the undefined index.
var NoIndex = Index{}

// At returns a defined index.
func At(i int) Index { return Index{i: i, ok: true} }

func (x Index) Get() (int, bool) { return x.i, x.ok }
func (x Index) Valid() bool      { return x.ok }

func (x Index) String() string {
	if !x.ok {
		return "none"
	}
	return fmt.Sprintf("%d", x.i)
}

// Params holds the caller-supplied tunables.
type Params struct {
	MinStationsHigh     int     `json:"min_stations_high" yaml:"min_stations_high"`
	MinStationsModerate int     `json:"min_stations_moderate" yaml:"min_stations_moderate"`
	MinModerateRun      int     `json:"min_moderate_run" yaml:"min_moderate_run"`
	ConnectDist         float64 `json:"connect_dist" yaml:"connect_dist"`
	StdLimit            float64 `json:"std_limit" yaml:"std_limit"`
}

// DefaultParams returns the scanner defaults for the given thresholds.
func DefaultParams(minHigh, minModerate, minRun int) Params {
	return Params{
		MinStationsHigh:     minHigh,
		MinStationsModerate: minModerate,
		MinModerateRun:      minRun,
		ConnectDist:         DefaultConnectDist,
		StdLimit:            DefaultStdLimit,
	}
}

// ClassifierParams returns the defaults of a standalone point classification.
// Score always uses whatever Params it is given, so these only matter to
// callers that classify single points themselves.
func ClassifierParams(minHigh, minModerate, minRun int) Params {
	p := DefaultParams(minHigh, minModerate, minRun)
	p.ConnectDist = ClassifierConnectDist
	return p
}

var ErrParams = errors.New("invalid confidence params")

// Validate is for the configuration surfaces. The scanner itself never
// validates its input.
func (p Params) Validate() error {
	switch {
	case p.MinStationsHigh < 0, p.MinStationsModerate < 0:
		return fmt.Errorf("%w: station thresholds must be non-negative", ErrParams)
	case p.MinModerateRun < 0:
		return fmt.Errorf("%w: min moderate run must be non-negative", ErrParams)
	case !(p.ConnectDist > 0) || math.IsInf(p.ConnectDist, 0):
		return fmt.Errorf("%w: connect dist %v", ErrParams, p.ConnectDist)
	case !(p.StdLimit > 0) || math.IsInf(p.StdLimit, 0):
		return fmt.Errorf("%w: std limit %v", ErrParams, p.StdLimit)
	}
	return nil
}

// ConnectDistFromVelocity is the distance a fix may travel between two
// samples and still count as connected.
func ConnectDistFromVelocity(velocity, minTimeDiff float64) float64 {
	return velocity * minTimeDiff
}
