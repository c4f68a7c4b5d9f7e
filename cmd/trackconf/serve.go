package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trackconf-go/rbc"
	"trackconf-go/web"
)

type serveOpts struct {
	tuningFlags
	addr    string
	dist    string
	rbcUDP  []string
	rbcMask uint32
}

func newServeCmd() *cobra.Command {
	o := &serveOpts{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API and a live websocket feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o)
		},
	}
	fs := cmd.Flags()
	o.register(fs)
	fs.StringVar(&o.addr, "http", ":8080", "listen address")
	fs.StringVar(&o.dist, "dist", "", "directory of a static frontend to serve at /")
	fs.StringSliceVar(&o.rbcUDP, "rbc-udp", nil, "forward every scored track to host:port over UDP")
	fs.Uint32Var(&o.rbcMask, "rbc-mask", rbc.FlagAll, "message classes to forward")
	return cmd
}

func runServe(cmd *cobra.Command, o *serveOpts) error {
	tun, err := o.tuning(cmd.Flags())
	if err != nil {
		return err
	}
	// Fail at startup rather than on the first request.
	p, err := tun.Params()
	if err != nil {
		return err
	}
	slog.Info("loaded params", "min_stations_high", p.MinStationsHigh,
		"min_stations_moderate", p.MinStationsModerate, "min_moderate_run", p.MinModerateRun,
		"connect_dist", p.ConnectDist, "std_limit", p.StdLimit)

	srv := web.NewServer(tun)
	srv.SetStaticDir(o.dist)

	if len(o.rbcUDP) > 0 {
		snd := rbc.NewSender()
		for _, addr := range o.rbcUDP {
			if err := snd.AddUDPSender(addr, o.rbcMask); err != nil {
				return fmt.Errorf("rbc udp %s: %w", addr, err)
			}
		}
		if err := snd.Start(); err != nil {
			return err
		}
		defer snd.Stop()
		srv.SetRbcSender(snd)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx, o.addr); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}
