package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nightowl-sec/vantage/internal/console"
	"github.com/nightowl-sec/vantage/internal/poller"
	"github.com/nightowl-sec/vantage/pkg/utils"
)

func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live view that refreshes on a fixed cadence",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Live dashboard, full refresh every 10s by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch("dashboard")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "scans",
		Short: "Live scan history, scans-only refresh every 5s by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch("scans")
		},
	})

	return cmd
}

func runWatch(view string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("Received interrupt signal, stopping watch")
		cancel()
	}()

	pipeline := app.newPipeline()

	var metrics *utils.MetricsCollector
	if app.Config.Metrics.Enabled {
		metrics = utils.NewMetricsCollector(app.Config.Metrics.Runtime)
		app.API.SetMetrics(metrics)
		pipeline.SetMetrics(metrics)
		go func() {
			if err := metrics.StartServerWithContext(ctx, app.Config.Metrics.Addr); err != nil {
				logrus.Warnf("Metrics listener failed: %v", err)
			}
		}()
		logrus.Infof("Serving metrics on %s", app.Config.Metrics.Addr)
	}

	interval := app.Config.Console.DashboardInterval
	refresh := pipeline.Refresh
	if view == "scans" {
		interval = app.Config.Console.ScansInterval
		refresh = pipeline.RefreshScans
	}

	var watchErr error
	var lastFingerprint uint64
	tick := func(ctx context.Context) error {
		snap, err := refresh(ctx)
		if err != nil {
			// Auth failures end the watch; anything else keeps the
			// previous render on screen.
			herr := app.handleAPIError(err)
			if !app.Session.IsAuthenticated() {
				watchErr = herr
				cancel()
				return herr
			}
			return err
		}

		if snap.Fingerprint == lastFingerprint {
			if metrics != nil {
				metrics.CountRenderSkip()
			}
			return nil
		}
		lastFingerprint = snap.Fingerprint

		fmt.Println()
		console.RenderSnapshotHeader(os.Stdout, snap)
		switch view {
		case "scans":
			console.RenderScans(os.Stdout, snap.Scans)
		default:
			console.RenderDashboard(os.Stdout, snap.Metrics)
		}
		return nil
	}

	sched := poller.NewScheduler(view, interval, tick, app.Logger)
	if metrics != nil {
		sched.SetMetrics(metrics)
	}
	defer sched.Stop()

	err = sched.Run(ctx)
	if watchErr != nil {
		return watchErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
