package confidence

// PassState is the running state of one directional pass. It is a value:
// Advance returns the successor and leaves the receiver untouched.
type PassState struct {
	LastModerate Index
	LastHigh     Index
	ModerateRun  int
}

// NewPassState returns the state a pass starts from.
func NewPassState() PassState {
	return PassState{LastModerate: NoIndex, LastHigh: NoIndex}
}

// Advance records that point i was labelled lvl.
func (s PassState) Advance(i int, lvl Level) PassState {
	switch lvl {
	case Moderate:
		s.LastModerate = At(i)
		s.ModerateRun++
	case High:
		s.LastHigh = At(i)
		s.ModerateRun = 0
	}
	return s
}

// Classify labels point i given the state of the current pass.
func Classify(points []Point, i int, st PassState, p Params) Level {
	pt := points[i]
	switch {
	case pt.Stations >= p.MinStationsHigh:
		return High

	case pt.Stations >= p.MinStationsModerate:
		// Each check may raise the level, never lower it. The std check
		// only applies if neither adjacency check promoted the point.
		lvl := Unreliable
		if connected(points, i, st.LastModerate, p.ConnectDist) && st.ModerateRun >= p.MinModerateRun {
			lvl = High
		}
		if connected(points, i, st.LastHigh, p.ConnectDist) {
			lvl = High
		}
		if pt.Std < p.StdLimit && lvl < High {
			lvl = Moderate
		}
		return lvl

	case pt.Stations == ThreeStations:
		if connected(points, i, st.LastHigh, p.ConnectDist) {
			return High
		}
		if connected(points, i, st.LastModerate, p.ConnectDist) {
			return Moderate
		}
	}
	return Unreliable
}
