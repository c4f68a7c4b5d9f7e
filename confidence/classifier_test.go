package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 3, Y: 4}}

	assert.Equal(t, DisqualifyingDistance, Distance(pts, 0, NoIndex))
	assert.Equal(t, DisqualifyingDistance, Distance(pts, 1, NoIndex))
	assert.InDelta(t, 5.0, Distance(pts, 0, At(1)), 1e-12)
	assert.InDelta(t, 5.0, Distance(pts, 1, At(0)), 1e-12)
	assert.Zero(t, Distance(pts, 1, At(1)))
}

func TestIndex(t *testing.T) {
	_, ok := NoIndex.Get()
	assert.False(t, ok)
	assert.False(t, Index{}.Valid())
	assert.Equal(t, "none", NoIndex.String())

	i, ok := At(0).Get()
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, "7", At(7).String())
}

func TestPassStateAdvance(t *testing.T) {
	st := NewPassState()
	st = st.Advance(0, Moderate)
	st = st.Advance(1, Unreliable)
	st = st.Advance(2, Moderate)
	assert.Equal(t, 2, st.ModerateRun)
	assert.Equal(t, At(2), st.LastModerate)
	assert.False(t, st.LastHigh.Valid())

	before := st
	after := st.Advance(3, High)
	assert.Equal(t, 0, after.ModerateRun, "run resets on a high label")
	assert.Equal(t, At(3), after.LastHigh)
	assert.Equal(t, At(2), after.LastModerate)
	assert.Equal(t, 2, before.ModerateRun, "receiver is not modified")

	after = after.Advance(4, Unreliable)
	assert.Equal(t, 0, after.ModerateRun)
}

func TestClassify(t *testing.T) {
	p := DefaultParams(5, 4, 2)

	tests := []struct {
		name   string
		points []Point
		i      int
		st     PassState
		want   Level
	}{
		{
			name:   "enough stations is always high",
			points: []Point{{Stations: 5, Std: 1e9}},
			st:     NewPassState(),
			want:   High,
		},
		{
			name:   "moderate by std alone",
			points: []Point{{Stations: 4, Std: 10}},
			st:     NewPassState(),
			want:   Moderate,
		},
		{
			name:   "std at limit is not moderate",
			points: []Point{{Stations: 4, Std: 80}},
			st:     NewPassState(),
			want:   Unreliable,
		},
		{
			name:   "connected to high fix",
			points: []Point{{Stations: 5}, {X: 3, Y: 4, Stations: 4, Std: 500}},
			i:      1,
			st:     PassState{LastHigh: At(0)},
			want:   High,
		},
		{
			name:   "distance equal to connect dist is not connected",
			points: []Point{{Stations: 5}, {X: 20, Stations: 4, Std: 500}},
			i:      1,
			st:     PassState{LastHigh: At(0)},
			want:   Unreliable,
		},
		{
			name:   "long moderate run promotes",
			points: []Point{{Stations: 4}, {X: 1, Stations: 4, Std: 500}},
			i:      1,
			st:     PassState{LastModerate: At(0), ModerateRun: 2},
			want:   High,
		},
		{
			name:   "short moderate run falls back to std",
			points: []Point{{Stations: 4}, {X: 1, Stations: 4, Std: 10}},
			i:      1,
			st:     PassState{LastModerate: At(0), ModerateRun: 1},
			want:   Moderate,
		},
		{
			name:   "long run but far away",
			points: []Point{{Stations: 4}, {X: 100, Stations: 4, Std: 10}},
			i:      1,
			st:     PassState{LastModerate: At(0), ModerateRun: 9},
			want:   Moderate,
		},
		{
			name:   "three stations near high",
			points: []Point{{Stations: 5}, {X: 1, Stations: 3}},
			i:      1,
			st:     PassState{LastHigh: At(0), LastModerate: At(0)},
			want:   High,
		},
		{
			name:   "three stations near moderate only",
			points: []Point{{Stations: 4}, {X: 1, Stations: 3}, {X: 1000, Stations: 5}},
			i:      1,
			st:     PassState{LastModerate: At(0), LastHigh: At(2)},
			want:   Moderate,
		},
		{
			name:   "three stations isolated",
			points: []Point{{Stations: 3, Std: 1}},
			st:     NewPassState(),
			want:   Unreliable,
		},
		{
			name:   "two stations never scores",
			points: []Point{{Stations: 5}, {X: 1, Stations: 2, Std: 1}},
			i:      1,
			st:     PassState{LastHigh: At(0), LastModerate: At(0), ModerateRun: 10},
			want:   Unreliable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.points, tt.i, tt.st, p))
		})
	}
}

func TestClassifyOverlappingBranches(t *testing.T) {
	// With a moderate floor below three, a three-station fix is handled by
	// the std rule, not by the three-station rule.
	p := DefaultParams(5, 2, 2)
	pts := []Point{{Stations: 3, Std: 10}}
	assert.Equal(t, Moderate, Classify(pts, 0, NewPassState(), p))

	pts = []Point{{Stations: 3, Std: 200}}
	assert.Equal(t, Unreliable, Classify(pts, 0, NewPassState(), p))
}

func TestClassifierParams(t *testing.T) {
	p := ClassifierParams(4, 3, 2)
	assert.Equal(t, ClassifierConnectDist, p.ConnectDist)
	assert.Equal(t, DefaultStdLimit, p.StdLimit)

	pts := []Point{{Stations: 4}, {X: 100, Stations: 3, Std: 500}}
	st := PassState{LastHigh: At(0)}
	assert.Equal(t, High, Classify(pts, 1, st, p))
	assert.Equal(t, Unreliable, Classify(pts, 1, st, DefaultParams(4, 3, 2)))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams(4, 3, 2).Validate())

	bad := []Params{
		{MinStationsHigh: -1, ConnectDist: 1, StdLimit: 1},
		{MinStationsModerate: -1, ConnectDist: 1, StdLimit: 1},
		{MinModerateRun: -1, ConnectDist: 1, StdLimit: 1},
		{ConnectDist: 0, StdLimit: 1},
		{ConnectDist: 1, StdLimit: 0},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), ErrParams)
	}
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{"0": Unreliable, "moderate": Moderate, "2": High} {
		got, err := ParseLevel(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("3")
	assert.Error(t, err)
	assert.Equal(t, "Level(3)", Level(3).String())
}

func TestConnectDistFromVelocity(t *testing.T) {
	assert.InDelta(t, 30.0, ConnectDistFromVelocity(1.5, 20), 1e-12)
}
