package rbc

import "trackconf-go/confidence"

// Message classes a target can subscribe to through its mask.
const (
	FlagPosition  = 1
	FlagConfident = 2
	FlagHigh      = 4
	FlagSummary   = 8

	FlagAll = FlagPosition | FlagConfident | FlagHigh | FlagSummary
)

// FlagsFor returns the classes a fix with the given label belongs to.
func FlagsFor(lvl confidence.Level) uint32 {
	f := uint32(FlagPosition)
	if lvl >= confidence.Moderate {
		f |= FlagConfident
	}
	if lvl >= confidence.High {
		f |= FlagHigh
	}
	return f
}
