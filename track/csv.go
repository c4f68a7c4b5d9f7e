// Package track reads trajectories of fixes from CSV and writes them back
// with their confidence labels.
package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"trackconf-go/confidence"
)

// ConfidenceColumn is appended to every written row.
const ConfidenceColumn = "confidence"

var ErrHeader = errors.New("missing column")

// Accepted header names per field, first match wins.
var (
	xNames        = []string{"x", "x_m", "fused_x_m"}
	yNames        = []string{"y", "y_m", "fused_y_m"}
	stationsNames = []string{"nbs", "stations", "num_beacons"}
	stdNames      = []string{"std", "stdvarxy", "std_m"}
)

// Track is a parsed CSV trajectory. Rows keeps the original cells so they can
// be written back unchanged.
type Track struct {
	Header []string
	Rows   [][]string
	Points []confidence.Point
}

func ReadFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*Track, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrHeader)
	}
	header := recs[0]
	cols := [confidence.NumCols]int{}
	for i, names := range [][]string{xNames, yNames, stationsNames, stdNames} {
		cols[i] = findColumn(header, names)
		if cols[i] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrHeader, names[0])
		}
	}

	t := &Track{Header: header, Rows: recs[1:], Points: make([]confidence.Point, 0, len(recs)-1)}
	for n, row := range t.Rows {
		var vals [confidence.NumCols]float64
		for i, c := range cols {
			if c >= len(row) {
				return nil, fmt.Errorf("row %d: missing %s", n+1, header[c])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+1, header[c], err)
			}
			vals[i] = v
		}
		stations, err := confidence.StationCount(vals[confidence.ColStations])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", n+1, header[cols[confidence.ColStations]], err)
		}
		t.Points = append(t.Points, confidence.Point{
			X:        vals[confidence.ColX],
			Y:        vals[confidence.ColY],
			Stations: stations,
			Std:      vals[confidence.ColStd],
		})
	}
	return t, nil
}

// WriteCSV writes every row at or above minLevel with its label appended.
func (t *Track) WriteCSV(w io.Writer, v confidence.Vector, minLevel confidence.Level) error {
	if len(v) != len(t.Rows) {
		return fmt.Errorf("have %d labels for %d rows", len(v), len(t.Rows))
	}
	cw := csv.NewWriter(w)
	header := append(append([]string{}, t.Header...), ConfidenceColumn)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if v[i] < minLevel {
			continue
		}
		out := append(append([]string{}, row...), strconv.Itoa(int(v[i])))
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (t *Track) WriteFile(path string, v confidence.Vector, minLevel confidence.Level) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f, v, minLevel); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}
