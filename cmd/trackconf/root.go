package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"trackconf-go/config"
	"trackconf-go/logging"
)

type globalOpts struct {
	verbose bool
	quiet   bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:   "trackconf",
		Short: "Label localization fixes with a confidence level",
		Long: `trackconf assigns each fix of a trajectory a confidence level of 0, 1 or 2
from the number of base stations behind the fix, its reported standard
deviation and its distance to other confident fixes of the same track.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Setup(g.verbose, g.quiet)
			if g.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newScoreCmd())
	root.AddCommand(newServeCmd())
	return root
}

// tuningFlags are the tunables that can be given on the command line. Only
// flags the user actually set override the config file.
type tuningFlags struct {
	configPath      string
	minHigh         int
	minModerate     int
	minRun          int
	connectDist     float64
	stdLimit        float64
	connectVelocity float64
	minTimeDiff     float64
}

func (f *tuningFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "tuning file (.json, .yaml)")
	fs.IntVar(&f.minHigh, "min-stations-high", config.DefaultMinStationsHigh, "station count that makes a fix high confidence")
	fs.IntVar(&f.minModerate, "min-stations-moderate", config.DefaultMinStationsModerate, "station count that makes a fix eligible for moderate confidence")
	fs.IntVar(&f.minRun, "min-run", config.DefaultMinModerateRun, "moderate fixes in a row before a connected fix is promoted")
	fs.Float64Var(&f.connectDist, "connect-dist", 20, "distance below which two fixes are connected")
	fs.Float64Var(&f.stdLimit, "std-limit", 80, "largest std a moderate fix may report")
	fs.Float64Var(&f.connectVelocity, "connect-velocity", 0, "derive connect-dist from this velocity")
	fs.Float64Var(&f.minTimeDiff, "min-time-diff", 0, "sampling interval used with --connect-velocity")
}

func (f *tuningFlags) tuning(fs *pflag.FlagSet) (*config.Tuning, error) {
	t := &config.Tuning{}
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		t.Merge(loaded)
	}
	o := &config.Tuning{}
	if fs.Changed("min-stations-high") {
		o.MinStationsHigh = config.PtrInt(f.minHigh)
	}
	if fs.Changed("min-stations-moderate") {
		o.MinStationsModerate = config.PtrInt(f.minModerate)
	}
	if fs.Changed("min-run") {
		o.MinModerateRun = config.PtrInt(f.minRun)
	}
	if fs.Changed("connect-dist") {
		o.ConnectDist = config.PtrFloat64(f.connectDist)
	}
	if fs.Changed("std-limit") {
		o.StdLimit = config.PtrFloat64(f.stdLimit)
	}
	if fs.Changed("connect-velocity") {
		o.ConnectVelocity = config.PtrFloat64(f.connectVelocity)
	}
	if fs.Changed("min-time-diff") {
		o.MinTimeDiff = config.PtrFloat64(f.minTimeDiff)
	}
	t.Merge(o)
	return t, nil
}
