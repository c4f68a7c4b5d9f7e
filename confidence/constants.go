package confidence

// DisqualifyingDistance is returned for an undefined reference point. It must
// exceed every realistic connection distance.
const DisqualifyingDistance = 1e6

// Scanner defaults.
const (
	DefaultConnectDist = 20.0
	DefaultStdLimit    = 80.0
)

// ClassifierConnectDist is the per-point default used when the classifier is
// configured on its own via ClassifierParams.
const ClassifierConnectDist = 160.0

// ThreeStations is the only hard-coded station count in the decision rule.
const ThreeStations = 3

// Column layout of the host table.
const (
	ColX = iota
	ColY
	ColStations
	ColStd
	NumCols
)
