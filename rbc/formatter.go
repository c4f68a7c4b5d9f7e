package rbc

import (
	"fmt"

	"trackconf-go/confidence"
)

const displayHeader = "display:   ,"

// FormatFixConf formats one labelled fix as a display line:
//
//	display:NNN,<track>,<seq>,<level>,<x>,<y>,<stations>,<std>\r\n
//
// Bytes 8-10 carry the total line length in decimal.
func FormatFixConf(trackID string, seq int, p confidence.Point, lvl confidence.Level) []byte {
	body := fmt.Sprintf("%s%s,%d,%d,%.2f,%.2f,%d,%.2f\r\n",
		displayHeader, trackID, seq, int(lvl), p.X, p.Y, p.Stations, p.Std)
	return fillLength([]byte(body))
}

// FormatSummary formats the label counts of a whole track.
func FormatSummary(trackID string, v confidence.Vector) []byte {
	c := v.Counts()
	body := fmt.Sprintf("%s%s,summary,%d,%d,%d,%d\r\n", displayHeader, trackID, len(v), c[0], c[1], c[2])
	return fillLength([]byte(body))
}

func fillLength(b []byte) []byte {
	n := len(b)
	if n >= 1000 {
		return b
	}
	if n >= 100 {
		b[8] = byte('0' + n/100)
	}
	b[9] = byte('0' + (n/10)%10)
	b[10] = byte('0' + n%10)
	return b
}
