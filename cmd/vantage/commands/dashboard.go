package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/internal/console"
)

func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Render the command-center dashboard once",
		Long: `Fetch targets, scans and findings in one consistent snapshot and render
the derived dashboard: counts, severity distribution, module usage, the
overall security grade and the recent activity feed.`,
		RunE: runDashboard,
	}
}

func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the asset-relationship graph",
		Long: `Build the asset graph from current targets and scan results: target
nodes linked to the subdomains and IPs scans discovered under them.`,
		RunE: runGraph,
	}

	cmd.Flags().Bool("dedup-links", false, "Collapse repeated edges from independent scans")
	viper.BindPFlag("console.dedup_graph_links", cmd.Flags().Lookup("dedup-links"))

	return cmd
}

func runDashboard(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	snap, err := app.newPipeline().Refresh(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}

	console.RenderDashboard(os.Stdout, snap.Metrics)
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout())
	defer cancel()

	snap, err := app.newPipeline().Refresh(ctx)
	if err != nil {
		return app.handleAPIError(err)
	}

	console.RenderGraph(os.Stdout, snap.Graph)
	return nil
}
