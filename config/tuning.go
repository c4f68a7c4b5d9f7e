// Package config loads confidence tunables from JSON or YAML files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"trackconf-go/confidence"
)

const maxFileSize = 1 << 20

var ErrExtension = errors.New("config file must be .json, .yaml or .yml")

// Tuning mirrors confidence.Params with optional fields, so a partial file
// only overrides what it names.
type Tuning struct {
	MinStationsHigh     *int     `json:"min_stations_high,omitempty" yaml:"min_stations_high,omitempty"`
	MinStationsModerate *int     `json:"min_stations_moderate,omitempty" yaml:"min_stations_moderate,omitempty"`
	MinModerateRun      *int     `json:"min_moderate_run,omitempty" yaml:"min_moderate_run,omitempty"`
	ConnectDist         *float64 `json:"connect_dist,omitempty" yaml:"connect_dist,omitempty"`
	StdLimit            *float64 `json:"std_limit,omitempty" yaml:"std_limit,omitempty"`

	// Alternative to ConnectDist: connected if within velocity * min_time_diff.
	ConnectVelocity *float64 `json:"connect_velocity,omitempty" yaml:"connect_velocity,omitempty"`
	MinTimeDiff     *float64 `json:"min_time_diff,omitempty" yaml:"min_time_diff,omitempty"`
}

// Fallback station thresholds used when neither file nor flags set them.
const (
	DefaultMinStationsHigh     = 4
	DefaultMinStationsModerate = 3
	DefaultMinModerateRun      = 2
)

func PtrInt(v int) *int             { return &v }
func PtrFloat64(v float64) *float64 { return &v }

// Load reads a tuning file. Unknown keys are rejected.
func Load(path string) (*Tuning, error) {
	clean := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(clean))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w, got %q", ErrExtension, ext)
	}

	fi, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	t := &Tuning{}
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(t); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", clean, err)
		}
		return t, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", clean, err)
	}
	return t, nil
}

// Merge overrides t with every field set in o.
func (t *Tuning) Merge(o *Tuning) {
	if o == nil {
		return
	}
	if o.MinStationsHigh != nil {
		t.MinStationsHigh = o.MinStationsHigh
	}
	if o.MinStationsModerate != nil {
		t.MinStationsModerate = o.MinStationsModerate
	}
	if o.MinModerateRun != nil {
		t.MinModerateRun = o.MinModerateRun
	}
	if o.ConnectDist != nil {
		t.ConnectDist = o.ConnectDist
	}
	if o.StdLimit != nil {
		t.StdLimit = o.StdLimit
	}
	if o.ConnectVelocity != nil {
		t.ConnectVelocity = o.ConnectVelocity
	}
	if o.MinTimeDiff != nil {
		t.MinTimeDiff = o.MinTimeDiff
	}
}

// Params resolves the tuning into validated scanner parameters.
func (t *Tuning) Params() (confidence.Params, error) {
	p := confidence.DefaultParams(DefaultMinStationsHigh, DefaultMinStationsModerate, DefaultMinModerateRun)
	if t.MinStationsHigh != nil {
		p.MinStationsHigh = *t.MinStationsHigh
	}
	if t.MinStationsModerate != nil {
		p.MinStationsModerate = *t.MinStationsModerate
	}
	if t.MinModerateRun != nil {
		p.MinModerateRun = *t.MinModerateRun
	}
	switch {
	case t.ConnectDist != nil:
		p.ConnectDist = *t.ConnectDist
	case t.ConnectVelocity != nil && t.MinTimeDiff != nil:
		p.ConnectDist = confidence.ConnectDistFromVelocity(*t.ConnectVelocity, *t.MinTimeDiff)
	case t.ConnectVelocity != nil || t.MinTimeDiff != nil:
		return p, fmt.Errorf("%w: connect_velocity and min_time_diff must be set together", confidence.ErrParams)
	}
	if t.StdLimit != nil {
		p.StdLimit = *t.StdLimit
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
