package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trackconf-go/confidence"
	"trackconf-go/rbc"
	"trackconf-go/track"
)

type scoreOpts struct {
	tuningFlags
	in       string
	out      string
	minLevel string
	parallel bool
	trackID  string
	rbcUDP   []string
	rbcTCP   []string
	rbcMask  uint32
	rbcHdr   string
}

func newScoreCmd() *cobra.Command {
	o := &scoreOpts{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Label every fix of a CSV trajectory",
		Example: `  trackconf score --in fixes.csv --out labeled.csv
  trackconf score --in fixes.csv --out confident.csv --min-level 1 --config tuning.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, o)
		},
	}
	fs := cmd.Flags()
	o.register(fs)
	fs.StringVarP(&o.in, "in", "i", "", "input CSV with x, y, nbs and std columns")
	fs.StringVarP(&o.out, "out", "o", "labeled.csv", "output CSV")
	fs.StringVar(&o.minLevel, "min-level", "0", "drop fixes below this level (0, 1, 2)")
	fs.BoolVar(&o.parallel, "parallel", false, "run both scan directions concurrently")
	fs.StringVar(&o.trackID, "track-id", "", "track id used in forwarded messages (default: input file name)")
	fs.StringSliceVar(&o.rbcUDP, "rbc-udp", nil, "forward labelled fixes to host:port over UDP")
	fs.StringSliceVar(&o.rbcTCP, "rbc-tcp", nil, "forward labelled fixes to host:port over TCP")
	fs.Uint32Var(&o.rbcMask, "rbc-mask", rbc.FlagAll, "message classes to forward (1 all, 2 confident, 4 high, 8 summary)")
	fs.StringVar(&o.rbcHdr, "rbc-header", "", "prefix for forwarded messages")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runScore(cmd *cobra.Command, o *scoreOpts) error {
	minLevel, err := confidence.ParseLevel(o.minLevel)
	if err != nil {
		return err
	}
	tun, err := o.tuning(cmd.Flags())
	if err != nil {
		return err
	}
	p, err := tun.Params()
	if err != nil {
		return err
	}

	tr, err := track.ReadFile(o.in)
	if err != nil {
		return fmt.Errorf("read %s: %w", o.in, err)
	}
	slog.Debug("loaded track", "path", o.in, "points", len(tr.Points))

	var v confidence.Vector
	if o.parallel {
		v, err = confidence.ScoreConcurrent(cmd.Context(), tr.Points, p)
		if err != nil {
			return err
		}
	} else {
		v = confidence.Score(tr.Points, p)
	}

	if err := tr.WriteFile(o.out, v, minLevel); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}

	if len(o.rbcUDP) > 0 || len(o.rbcTCP) > 0 {
		if err := forward(o, tr.Points, v); err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), o.out, v)
	return nil
}

func forward(o *scoreOpts, points []confidence.Point, v confidence.Vector) error {
	snd := rbc.NewSender()
	snd.SetHeader(o.rbcHdr)
	for _, addr := range o.rbcUDP {
		if err := snd.AddUDPSender(addr, o.rbcMask); err != nil {
			return fmt.Errorf("rbc udp %s: %w", addr, err)
		}
		slog.Info("added RBC UDP sender", "addr", addr, "mask", o.rbcMask)
	}
	for _, addr := range o.rbcTCP {
		snd.AddTCPSender(addr, o.rbcMask)
		slog.Info("added RBC TCP sender", "addr", addr, "mask", o.rbcMask)
	}
	if err := snd.Start(); err != nil {
		return err
	}
	defer snd.Stop()

	id := o.trackID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(o.in), filepath.Ext(o.in))
	}
	snd.SendTrack(id, points, v)
	return nil
}

func printSummary(w io.Writer, out string, v confidence.Vector) {
	c := v.Counts()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintf(w, "%d fixes labelled -> %s\n", len(v), out)
	green.Fprintf(w, "  high:       %d\n", c[confidence.High])
	yellow.Fprintf(w, "  moderate:   %d\n", c[confidence.Moderate])
	red.Fprintf(w, "  unreliable: %d\n", c[confidence.Unreliable])
}
